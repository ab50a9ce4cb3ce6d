package model

import "time"

// ChainStatus 部署任务链状态
type ChainStatus string

const (
	ChainStatusCreated         ChainStatus = "created"
	ChainStatusProvisioning    ChainStatus = "provisioning"
	ChainStatusProvisionFailed ChainStatus = "provision_failed"
	ChainStatusProvisioned     ChainStatus = "provisioned"
	ChainStatusPolling         ChainStatus = "polling"
	ChainStatusPollFailed      ChainStatus = "poll_failed"
	ChainStatusPollTimeout     ChainStatus = "poll_timeout"
	ChainStatusActive          ChainStatus = "active"
	ChainStatusInstanceError   ChainStatus = "instance_error"
)

// Terminal reports whether the chain has finished, success or not.
func (s ChainStatus) Terminal() bool {
	switch s {
	case ChainStatusProvisionFailed, ChainStatusPollFailed,
		ChainStatusPollTimeout, ChainStatusActive, ChainStatusInstanceError:
		return true
	}
	return false
}

// DeploymentRecord 部署记录，每次提交一行
type DeploymentRecord struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID          string      `gorm:"type:varchar(36);not null;uniqueIndex:uk_job_id" json:"jobId"`
	Endpoint       string      `gorm:"type:varchar(4096);not null" json:"endpoint"`
	Username       string      `gorm:"type:varchar(4096);not null" json:"username"`
	Memo           string      `gorm:"type:text" json:"memo"`
	ClientIP       string      `gorm:"type:varchar(64)" json:"clientIp"`
	EmailAddr      string      `gorm:"type:varchar(255)" json:"emailAddr,omitempty"`
	ChainStatus    ChainStatus `gorm:"type:varchar(32);not null;default:created;index" json:"chainStatus"`
	InstanceID     *string     `gorm:"type:varchar(64);index" json:"instanceId,omitempty"`
	InstanceStatus *string     `gorm:"type:varchar(32)" json:"instanceStatus,omitempty"`
	ErrorMessage   *string     `gorm:"type:varchar(1024)" json:"errorMessage,omitempty"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (DeploymentRecord) TableName() string {
	return "deployment_records"
}
