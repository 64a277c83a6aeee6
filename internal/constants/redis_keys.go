package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ApplicationModulePrefix 申请模块
	ApplicationModulePrefix = "application"
	// CompanyModulePrefix 公司模块
	CompanyModulePrefix = "company"

	// EntityLock 分布式锁实体
	EntityLock = "lock"
	// EntityAPIKey API Key实体
	EntityAPIKey = "apikey"

	// KeyApplicationLock 申请处理锁 (STRING)
	// 格式: app:application:lock:{applicationID}
	KeyApplicationLock = AppPrefix + ":" + ApplicationModulePrefix + ":" + EntityLock + ":%s"

	// KeyCompanyByAPIKey API Key到公司的缓存 (STRING, JSON)
	// 格式: app:company:apikey:{sha256(apiKey)}
	KeyCompanyByAPIKey = AppPrefix + ":" + CompanyModulePrefix + ":" + EntityAPIKey + ":%s"
)
