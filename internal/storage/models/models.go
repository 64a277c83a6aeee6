package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 岗位状态
const (
	JobStatusActive  = "active"
	JobStatusExpired = "expired"
	JobStatusClosed  = "closed"
)

// 投递方式
const (
	ApplicationModeEmail = "email"
	ApplicationModeLink  = "link"
)

// Company 招聘公司表
type Company struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex:idx_companies_email_unique" json:"email"`
	APIKey    string    `gorm:"column:api_key;type:varchar(128);uniqueIndex:idx_companies_api_key_unique" json:"-"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
}

func (Company) TableName() string {
	return "companies"
}

// Job 岗位信息表
type Job struct {
	ID               string         `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID        string         `gorm:"type:char(36);not null;index:idx_jobs_company_id" json:"company_id"`
	JobTitle         string         `gorm:"type:varchar(255);not null" json:"job_title"`
	JobDescription   string         `gorm:"type:text" json:"job_description"`
	Requirements     string         `gorm:"type:text;not null" json:"requirements"`
	ApplicationMode  string         `gorm:"type:varchar(20);default:'link'" json:"application_mode"`
	ApplicationEmail string         `gorm:"type:varchar(255)" json:"application_email,omitempty"`
	ReportEmails     datatypes.JSON `gorm:"type:json" json:"report_emails"`
	Deadline         time.Time      `gorm:"type:datetime(6);not null" json:"deadline"`
	InterviewTime    *time.Time     `gorm:"type:datetime(6)" json:"interview_time,omitempty"`
	InterviewLink    string         `gorm:"type:varchar(1024)" json:"interview_link,omitempty"`
	Status           string         `gorm:"type:varchar(20);default:'active';index:idx_jobs_status" json:"status"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Application 求职申请表，parsed_data 保存解析出的简历事实
type Application struct {
	ID             string         `gorm:"type:char(36);primaryKey" json:"id"`
	JobID          string         `gorm:"type:char(36);not null;index:idx_applications_job_id" json:"job_id"`
	ApplicantEmail string         `gorm:"type:varchar(255);not null" json:"applicant_email"`
	ResumeFile     string         `gorm:"type:varchar(1024)" json:"resume_file,omitempty"`
	Source         string         `gorm:"type:varchar(50);default:'upload'" json:"source"`
	ParsedData     datatypes.JSON `gorm:"type:json" json:"parsed_data,omitempty"`
	AIScore        *int           `gorm:"column:ai_score" json:"ai_score"`
	Status         string         `gorm:"type:varchar(20);default:'pending';index:idx_applications_status" json:"status"`
	Feedback       string         `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"submitted_at"`
	ProcessedAt    *time.Time     `gorm:"type:datetime(6)" json:"processed_at,omitempty"`

	Job *Job `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Application) TableName() string {
	return "applications"
}

// Report 已生成的岗位报告
type Report struct {
	ID          string         `gorm:"type:char(36);primaryKey" json:"id"`
	JobID       string         `gorm:"type:char(36);not null;index:idx_reports_job_id" json:"job_id"`
	Summary     datatypes.JSON `gorm:"type:json" json:"summary"`
	FileURL     string         `gorm:"type:varchar(1024)" json:"file_url,omitempty"`
	SentTo      datatypes.JSON `gorm:"type:json" json:"sent_to"`
	GeneratedAt time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"generated_at"`

	Job *Job `gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Report) TableName() string {
	return "reports"
}

// StringList 将 JSON 数组列解码为字符串切片，解析失败返回空切片
func StringList(raw datatypes.JSON) []string {
	list := []string{}
	if len(raw) == 0 {
		return list
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return []string{}
	}
	return list
}

// JSONList 将字符串切片编码为 JSON 数组列
func JSONList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return datatypes.JSON(data)
}
