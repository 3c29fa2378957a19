package util

const (
	DateFormat        = "2006-01-02"
	TimeFormat        = "2006-01-02 15:04:05"
	CertificateFormat = "January 2, 2006"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"

	MaxUploadSize int64 = 5 << 20
)

// 上传目录
const (
	FolderThumbnails = "course-thumbnails"
	FolderLogos      = "company-logos"
	FolderResumes    = "resumes"
)

const ContextUserKey = "user"
