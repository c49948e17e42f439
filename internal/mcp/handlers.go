package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/studio/internal/builder"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/finance"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
	"github.com/hpungsan/studio/internal/pack"
)

// Request types for each tool

// PageRequest carries list paging arguments.
type PageRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ListUploadsRequest represents the arguments for template_list_uploads.
type ListUploadsRequest struct {
	Status string `json:"status,omitempty"`
	PageRequest
}

// IDRequest represents tools that take a single ID.
type IDRequest struct {
	ID string `json:"id"`
}

// ListJobsRequest represents the arguments for template_list_jobs.
type ListJobsRequest struct {
	UploadID string `json:"upload_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Target   string `json:"target,omitempty"`
	PageRequest
}

// ListLibraryRequest represents the arguments for library_list.
type ListLibraryRequest struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Target      string `json:"target,omitempty"`
	Query       string `json:"q,omitempty"`
	PageRequest
}

// ListExpensesRequest represents the arguments for finance_list_expenses.
type ListExpensesRequest struct {
	Owner      string `json:"owner,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	VendorID   string `json:"vendor_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	MethodID   string `json:"method_id,omitempty"`
	Paid       string `json:"paid,omitempty"`
}

// SummaryRequest represents the arguments for finance_summary.
type SummaryRequest struct {
	Owner  string `json:"owner,omitempty"`
	Period string `json:"period,omitempty"`
}

// MarkPaidRequest represents the arguments for finance_mark_paid.
type MarkPaidRequest struct {
	Owner string `json:"owner,omitempty"`
	ID    string `json:"id"`
	finance.MarkPaidInput
}

// CatalogRequest represents the arguments for builder_service_catalog.
type CatalogRequest struct {
	BusinessType string `json:"business_type"`
}

// CheckDomainRequest represents the arguments for builder_check_domain.
type CheckDomainRequest struct {
	Name string `json:"name"`
}

// ReadmeResult is returned by library_readme.
type ReadmeResult struct {
	ID       string   `json:"id"`
	Markdown string   `json:"markdown"`
	Sections []string `json:"sections"`
}

// ReadmeRequest represents the arguments for library_readme.
type ReadmeRequest struct {
	ID      string `json:"id"`
	Section string `json:"section,omitempty"`
}

func ownerOr(owner string) string {
	if o := strings.TrimSpace(owner); o != "" {
		return o
	}
	return model.DefaultOwner
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewFieldError("id", "This field is required.")
	}
	return nil
}

// Handler implementations

// HandleListUploads handles the template_list_uploads tool call.
func (h *Handlers) HandleListUploads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListUploadsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.ListUploads(ctx, h.db, ops.ListUploadsInput{
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCreateJob handles the template_create_job tool call. Arguments are
// validated against the same schema as the HTTP API.
func (h *Handlers) HandleCreateJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if args == nil {
		args = map[string]any{}
	}
	input, err := ops.ParseCreateJobArgs(args)
	if err != nil {
		return errorResult(err), nil
	}
	if h.runner == nil {
		return errorResult(errors.NewInvalidState("converter", "unavailable", "no conversion runner configured")), nil
	}
	job, err := ops.CreateJob(ctx, h.db, h.runner, *input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(job)
}

// HandleGetJob handles the template_get_job tool call.
func (h *Handlers) HandleGetJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}
	job, err := ops.GetJob(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(job)
}

// HandleListJobs handles the template_list_jobs tool call.
func (h *Handlers) HandleListJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListJobsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.ListJobs(ctx, h.db, ops.ListJobsInput{
		UploadID: input.UploadID,
		Status:   input.Status,
		Target:   input.Target,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleJobSchema handles the template_job_schema tool call.
func (h *Handlers) HandleJobSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.JobSchema())
}

// HandleListLibrary handles the library_list tool call.
func (h *Handlers) HandleListLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListLibraryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.ListLibrary(ctx, h.db, ops.ListLibraryInput{
		Category:    input.Category,
		Subcategory: input.Subcategory,
		Target:      input.Target,
		Query:       input.Query,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePromote handles the library_promote tool call.
func (h *Handlers) HandlePromote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.PromoteInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	item, err := ops.PromoteToLibrary(ctx, h.db, h.cfg, input)
	if err != nil {
		return errorResult(err), nil
	}
	h.logger.Info("library.promoted", "id", item.ID, "job_id", input.JobID, "via", "mcp")
	return successResult(item)
}

// HandleCategories handles the library_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := ops.LibraryCategories(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"categories": tree})
}

// HandleReadme handles the library_readme tool call.
func (h *Handlers) HandleReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadmeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}
	if input.Section != "" {
		section, err := ops.LibraryReadmeSection(ctx, h.db, h.cfg, input.ID, input.Section)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(ReadmeResult{ID: input.ID, Markdown: section.Markdown(), Sections: []string{section.Name}})
	}
	data, err := ops.LibraryReadme(ctx, h.db, h.cfg, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	md := string(data)
	return successResult(ReadmeResult{ID: input.ID, Markdown: md, Sections: pack.ReadmeSectionNames(pack.ParseReadme(md))})
}

// HandleListExpenses handles the finance_list_expenses tool call.
func (h *Handlers) HandleListExpenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListExpensesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	list, err := finance.ListExpenses(ctx, h.db, ownerOr(input.Owner), finance.ListExpensesInput{
		From:       input.From,
		To:         input.To,
		VendorID:   input.VendorID,
		CategoryID: input.CategoryID,
		MethodID:   input.MethodID,
		Paid:       input.Paid,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"items": list})
}

// HandleSummary handles the finance_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := finance.Summary(ctx, h.db, h.cfg, ownerOr(input.Owner), input.Period, h.now())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleMarkPaid handles the finance_mark_paid tool call.
func (h *Handlers) HandleMarkPaid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MarkPaidRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}
	out, err := finance.MarkPaid(ctx, h.db, ownerOr(input.Owner), input.ID, input.MarkPaidInput, h.now())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleSuggest handles the builder_suggest_text tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[builder.SuggestInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := builder.Suggest(ctx, h.suggester, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleServiceCatalog handles the builder_service_catalog tool call.
func (h *Handlers) HandleServiceCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CatalogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := builder.GetCatalog(ctx, h.db, input.BusinessType)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleCheckDomain handles the builder_check_domain tool call.
func (h *Handlers) HandleCheckDomain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckDomainRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	out, err := builder.CheckDomain(input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// Result helpers

const internalMessage = "an internal error occurred"

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var se *errors.StudioError
	if stderrors.As(err, &se) {
		msg := se.Message
		if se.Code == errors.ErrInternal {
			msg = internalMessage
		}
		errorObj := map[string]any{
			"code":    se.Code,
			"message": msg,
			"status":  se.Status,
		}
		if se.Code != errors.ErrInternal && se.Code != errors.ErrIOFailure && se.Details != nil {
			errorObj["details"] = se.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": internalMessage,
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
