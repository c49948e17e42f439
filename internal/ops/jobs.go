package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// createJobSchema describes the body accepted by job creation.
const createJobSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "CreateJob",
	"type": "object",
	"properties": {
		"upload": {"type": "string", "minLength": 1, "description": "ID of the upload to convert"},
		"upload_id": {"type": "string", "minLength": 1, "description": "Alias of upload"},
		"target": {"type": "string", "enum": ["DJANGO", "NEXTJS"], "description": "Platform to generate"}
	},
	"required": ["target"]
}`

const requiredMessage = "This field is required."

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func jobSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("create_job.json", strings.NewReader(createJobSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile("create_job.json")
	})
	return compiledSchema, schemaErr
}

// JobSchemaOutput documents the create-job request.
type JobSchemaOutput struct {
	Schema  json.RawMessage `json:"schema"`
	Example CreateJobInput  `json:"example"`
}

// JobSchema returns the create-job request schema and an example body.
func JobSchema() *JobSchemaOutput {
	return &JobSchemaOutput{
		Schema:  json.RawMessage(createJobSchema),
		Example: CreateJobInput{UploadID: "01JA2Z3K4M5N6P7Q8R9S0T1V2W", Target: model.TargetDjango},
	}
}

// CreateJobInput contains parameters for CreateJob. Upload and UploadID are
// interchangeable; Upload wins when both are set.
type CreateJobInput struct {
	Upload   string       `json:"upload,omitempty"`
	UploadID string       `json:"upload_id,omitempty"`
	Target   model.Target `json:"target"`
}

func (in CreateJobInput) uploadID() string {
	if id := strings.TrimSpace(in.Upload); id != "" {
		return id
	}
	return strings.TrimSpace(in.UploadID)
}

// ParseCreateJob validates a raw JSON body against the create-job schema.
// Schema violations come back as a validation error keyed by field.
func ParseCreateJob(raw []byte) (*CreateJobInput, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("malformed JSON: %v", err))
	}

	schema, err := jobSchema()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if stderrors.As(err, &verr) {
			return nil, errors.NewValidation(schemaFieldErrors(verr))
		}
		return nil, errors.NewInvalidRequest(err.Error())
	}

	var input CreateJobInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return &input, nil
}

// schemaFieldErrors flattens a validation error tree into per-field messages.
func schemaFieldErrors(verr *jsonschema.ValidationError) map[string][]string {
	fields := map[string][]string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		if missing, ok := missingProperties(e.Message); ok {
			for _, name := range missing {
				fields[name] = append(fields[name], requiredMessage)
			}
			return
		}
		field := strings.TrimPrefix(e.InstanceLocation, "/")
		if field == "" {
			field = "non_field_errors"
		}
		fields[field] = append(fields[field], e.Message)
	}
	walk(verr)
	if len(fields) == 0 {
		fields["non_field_errors"] = []string{verr.Message}
	}
	return fields
}

// missingProperties parses "missing properties: 'a', 'b'".
func missingProperties(msg string) ([]string, bool) {
	rest, ok := strings.CutPrefix(msg, "missing properties: ")
	if !ok {
		return nil, false
	}
	var names []string
	for _, part := range strings.Split(rest, ",") {
		name := strings.Trim(strings.TrimSpace(part), "'\"")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, len(names) > 0
}

// CreateJob records a QUEUED job for an upload and hands it to the runner.
// Conversion failures are captured on the job itself; the returned job
// reflects whatever state the runner left it in.
func CreateJob(ctx context.Context, database *sql.DB, runner Runner, input CreateJobInput) (*model.Job, error) {
	fields := map[string][]string{}
	target := model.Target(strings.TrimSpace(string(input.Target)))
	if target == "" {
		fields["target"] = []string{requiredMessage}
	} else if !target.Valid() {
		fields["target"] = []string{fmt.Sprintf("%q is not a valid choice.", string(input.Target))}
	}
	uploadID := input.uploadID()
	if uploadID == "" {
		fields["upload"] = []string{requiredMessage}
	}
	if len(fields) > 0 {
		return nil, errors.NewValidation(fields)
	}

	if _, err := db.GetUpload(ctx, database, uploadID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, uploadNotFound(uploadID)
		}
		return nil, err
	}

	id, err := NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	job := &model.Job{
		ID:        id,
		UploadID:  uploadID,
		Target:    target,
		Status:    model.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertJob(ctx, database, job); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, uploadNotFound(uploadID)
		}
		return nil, err
	}

	if runner != nil {
		if err := runner.Submit(ctx, job.ID); err != nil {
			// Settle the row so it does not sit QUEUED with nobody to run it.
			log := "CONVERSION ERROR: the job could not be scheduled.\n\nTechnical Details:\n" + err.Error()
			if _, terr := db.TransitionJob(context.WithoutCancel(ctx), database, job.ID, model.JobQueued, model.JobError, log, time.Now().Unix()); terr != nil {
				return nil, terr
			}
			return nil, err
		}
	}
	return db.GetJob(ctx, database, job.ID)
}

// uploadNotFound is a 404 that also carries the field-level message.
func uploadNotFound(id string) error {
	nf := errors.NewNotFound("upload", id)
	nf.Details["fields"] = map[string][]string{"upload": {"Upload not found."}}
	return nf
}

// GetJob returns one job.
func GetJob(ctx context.Context, database *sql.DB, id string) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetJob(ctx, database, id)
}

// ListJobsInput contains parameters for ListJobs.
type ListJobsInput struct {
	UploadID string
	Status   string
	Target   string
	Limit    int
	Offset   int
}

// ListJobsOutput contains the result of ListJobs.
type ListJobsOutput struct {
	Items      []model.Job `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// ListJobs returns jobs newest first.
func ListJobs(ctx context.Context, database *sql.DB, input ListJobsInput) (*ListJobsOutput, error) {
	filter := db.JobFilter{UploadID: strings.TrimSpace(input.UploadID)}
	if s := strings.ToUpper(strings.TrimSpace(input.Status)); s != "" {
		filter.Status = model.JobStatus(s)
		if !filter.Status.Valid() {
			return nil, errors.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", input.Status))
		}
	}
	if t := strings.ToUpper(strings.TrimSpace(input.Target)); t != "" {
		filter.Target = model.Target(t)
		if !filter.Target.Valid() {
			return nil, errors.NewFieldError("target", fmt.Sprintf("%q is not a valid choice.", input.Target))
		}
	}

	p := page(input.Limit, input.Offset)
	jobs, total, err := db.ListJobs(ctx, database, filter, p)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	return &ListJobsOutput{Items: jobs, Pagination: paginate(p, len(jobs), total)}, nil
}

// ParseCreateJobArgs validates already-decoded arguments (e.g. MCP tool input).
func ParseCreateJobArgs(args map[string]any) (*CreateJobInput, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return ParseCreateJob(raw)
}
