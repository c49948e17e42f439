// Package model holds the persisted record types shared by the store,
// the operation packages and the transports.
package model

// UploadStatus is the lifecycle state of an Upload.
type UploadStatus string

const (
	UploadPending UploadStatus = "PENDING"
	UploadReady   UploadStatus = "READY"
	UploadFailed  UploadStatus = "FAILED"
)

// Valid reports whether s is a known upload status.
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadPending, UploadReady, UploadFailed:
		return true
	}
	return false
}

// Target is the platform a template pack is generated for.
type Target string

const (
	TargetDjango Target = "DJANGO"
	TargetNextJS Target = "NEXTJS"
)

// Targets lists every supported target in display order.
var Targets = []Target{TargetDjango, TargetNextJS}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t == TargetDjango || t == TargetNextJS
}

// Label returns the human-readable platform name.
func (t Target) Label() string {
	switch t {
	case TargetDjango:
		return "Django"
	case TargetNextJS:
		return "Next.js"
	}
	return string(t)
}

// JobStatus is the lifecycle state of a ConversionJob.
type JobStatus string

const (
	JobQueued  JobStatus = "QUEUED"
	JobRunning JobStatus = "RUNNING"
	JobSuccess JobStatus = "SUCCESS"
	JobError   JobStatus = "ERROR"
)

// JobStatuses lists every job status.
var JobStatuses = []JobStatus{JobQueued, JobRunning, JobSuccess, JobError}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobRunning, JobSuccess, JobError:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobSuccess || s == JobError
}

// Upload is an image submitted for conversion.
type Upload struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	ImagePath string       `json:"image"` // relative to the media root
	Status    UploadStatus `json:"status"`
	Notes     string       `json:"notes"`
	CreatedAt int64        `json:"created_at"`
}

// Job is one conversion of an Upload into a template pack.
type Job struct {
	ID          string    `json:"id"`
	UploadID    string    `json:"upload"`
	Target      Target    `json:"target"`
	Status      JobStatus `json:"status"`
	Log         string    `json:"log"`
	ArchivePath *string   `json:"zip_file"` // relative to the media root
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
}

// HasArchive reports whether the job has a non-empty archive attached.
func (j *Job) HasArchive() bool {
	return j.ArchivePath != nil && *j.ArchivePath != ""
}

// LibraryItem is a durable copy of a successful job's archive.
type LibraryItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Target       Target   `json:"target"`
	Category     string   `json:"category"`
	Subcategory  string   `json:"subcategory"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	ArchivePath  string   `json:"zip_file"`
	PreviewImage *string  `json:"preview_image"`
	SourceJobID  *string  `json:"source_job,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

// DownloadName is the attachment filename offered for the archive.
func (i *LibraryItem) DownloadName() string {
	return SanitizeFileName(i.Name) + "_" + lower(string(i.Target)) + "_template.zip"
}

// WebsiteTemplate is a user-assembled page outline from the website templates tab.
type WebsiteTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Sections    []string `json:"sections"`
	Preview     string   `json:"preview"`
	CreatedAt   int64    `json:"created_at"`
}

// Library categories.
var LibraryCategories = []string{
	"main-website", "ecommerce", "blog", "portfolio", "landing-page", "dashboard",
}

// LibrarySubcategories groups subcategories under the category they belong to.
var LibrarySubcategories = map[string][]string{
	"main-website": {"homepage", "about-page", "contact-page", "services-page", "pricing-page", "domains-page"},
	"ecommerce":    {"product-listing", "product-detail", "shopping-cart", "checkout"},
	"blog":         {"blog-listing", "blog-post", "author-page"},
	"portfolio":    {"gallery", "project-detail"},
	"landing-page": {"lead-capture", "product-launch", "event-landing"},
	"dashboard":    {"analytics", "user-management", "settings"},
}

// Library defaults applied when a promotion omits category or subcategory.
const (
	DefaultLibraryCategory    = "main-website"
	DefaultLibrarySubcategory = "homepage"
)

// ValidLibraryCategory reports whether c is a known category.
func ValidLibraryCategory(c string) bool {
	_, ok := LibrarySubcategories[c]
	return ok
}

// ValidLibrarySubcategory reports whether s is a known subcategory of any category.
func ValidLibrarySubcategory(s string) bool {
	for _, subs := range LibrarySubcategories {
		for _, sub := range subs {
			if sub == s {
				return true
			}
		}
	}
	return false
}

// WebsiteTemplateCategories lists categories accepted for website templates.
var WebsiteTemplateCategories = []string{"homepage", "about", "services", "contact", "portfolio"}

// ValidWebsiteTemplateCategory reports whether c is a known website template category.
func ValidWebsiteTemplateCategory(c string) bool {
	for _, v := range WebsiteTemplateCategories {
		if v == c {
			return true
		}
	}
	return false
}
