package entities

const (
	// RequirementsFileEnvVar is the environment variable through which the
	// scan job learns which uploaded requirements file to scan.
	RequirementsFileEnvVar = "REQ_FILENAME"

	// DefaultObjectPrefix is where requirements files are uploaded; the scan
	// job copies "s3://<bucket>/requirements_files/${REQ_FILENAME}".
	DefaultObjectPrefix = "requirements_files/"
)

// BuildRequest starts one run of the scan job.
type BuildRequest struct {
	ProjectName   string
	SourceVersion string
	Environment   map[string]string // Plain-text overrides
}
