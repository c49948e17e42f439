package mcp

import "github.com/mark3labs/mcp-go/mcp"

var pageOptions = []mcp.ToolOption{
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
}

var ownerOption = mcp.WithString("owner",
	mcp.Description("Owner of the records (default \"local\")"))

func withOptions(name string, base []mcp.ToolOption, extra ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(base, extra...)...)
}

var listUploadsToolDef = withOptions("template_list_uploads", []mcp.ToolOption{
	mcp.WithDescription("List uploaded design images, newest first."),
	mcp.WithString("status", mcp.Description("Filter by status"),
		mcp.Enum("PENDING", "READY", "FAILED")),
}, pageOptions...)

var createJobToolDef = mcp.NewTool("template_create_job",
	mcp.WithDescription("Convert an upload into a downloadable site template for one target framework."),
	mcp.WithString("upload_id", mcp.Description("Upload to convert")),
	mcp.WithString("upload", mcp.Description("Alias of upload_id")),
	mcp.WithString("target", mcp.Required(),
		mcp.Description("Target framework"),
		mcp.Enum("DJANGO", "NEXTJS")),
)

var getJobToolDef = mcp.NewTool("template_get_job",
	mcp.WithDescription("Fetch a conversion job with its status and log."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Job ID")),
)

var listJobsToolDef = withOptions("template_list_jobs", []mcp.ToolOption{
	mcp.WithDescription("List conversion jobs, newest first."),
	mcp.WithString("upload_id", mcp.Description("Filter by upload")),
	mcp.WithString("status", mcp.Description("Filter by status"),
		mcp.Enum("QUEUED", "RUNNING", "SUCCESS", "ERROR")),
	mcp.WithString("target", mcp.Description("Filter by target"),
		mcp.Enum("DJANGO", "NEXTJS")),
}, pageOptions...)

var jobSchemaToolDef = mcp.NewTool("template_job_schema",
	mcp.WithDescription("Return the JSON Schema of template_create_job arguments with an example."),
)

var listLibraryToolDef = withOptions("library_list", []mcp.ToolOption{
	mcp.WithDescription("List library templates ordered by category, subcategory and name."),
	mcp.WithString("category", mcp.Description("Filter by category")),
	mcp.WithString("subcategory", mcp.Description("Filter by subcategory")),
	mcp.WithString("target", mcp.Description("Filter by target"),
		mcp.Enum("DJANGO", "NEXTJS")),
	mcp.WithString("q", mcp.Description("Substring match on name, description and tags")),
}, pageOptions...)

var promoteToolDef = mcp.NewTool("library_promote",
	mcp.WithDescription("Copy a successful job's archive into the template library."),
	mcp.WithString("job_id", mcp.Required(), mcp.Description("Successful job to promote")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Library item name")),
	mcp.WithString("category", mcp.Description("Category (default main-website)")),
	mcp.WithString("subcategory", mcp.Description("Subcategory (default homepage)")),
	mcp.WithString("description", mcp.Description("Free-form description")),
	mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"})),
)

var categoriesToolDef = mcp.NewTool("library_categories",
	mcp.WithDescription("Return the library category tree with item counts."),
)

var readmeToolDef = mcp.NewTool("library_readme",
	mcp.WithDescription("Return the README.md bundled in a library item's archive, with its section headings."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Library item ID")),
	mcp.WithString("section", mcp.Description("Return only this heading, matched case-insensitively")),
)

var listExpensesToolDef = mcp.NewTool("finance_list_expenses",
	mcp.WithDescription("List expenses, newest first."),
	ownerOption,
	mcp.WithString("from", mcp.Description("Earliest date, YYYY-MM-DD")),
	mcp.WithString("to", mcp.Description("Latest date, YYYY-MM-DD")),
	mcp.WithString("vendor_id", mcp.Description("Filter by vendor")),
	mcp.WithString("category_id", mcp.Description("Filter by category")),
	mcp.WithString("method_id", mcp.Description("Filter by payment method")),
	mcp.WithString("paid", mcp.Description("\"true\" or \"false\"")),
)

var summaryToolDef = mcp.NewTool("finance_summary",
	mcp.WithDescription("Total expenses for the current month or year to date."),
	ownerOption,
	mcp.WithString("period", mcp.Description("Period (default month)"), mcp.Enum("month", "ytd")),
)

var markPaidToolDef = mcp.NewTool("finance_mark_paid",
	mcp.WithDescription("Mark an expense as paid, optionally recording a payment reference."),
	ownerOption,
	mcp.WithString("id", mcp.Required(), mcp.Description("Expense ID")),
	mcp.WithString("paid_date", mcp.Description("Payment date, YYYY-MM-DD (default today)")),
	mcp.WithString("reference", mcp.Description("Payment reference appended to the note")),
)

var suggestToolDef = mcp.NewTool("builder_suggest_text",
	mcp.WithDescription("Suggest a short business description."),
	mcp.WithString("business_name", mcp.Required(), mcp.Description("Business name")),
	mcp.WithString("business_type", mcp.Required(), mcp.Description("Business type, e.g. restaurant")),
	mcp.WithString("text", mcp.Description("Current draft to improve")),
	mcp.WithArray("services", mcp.Description("Offered services"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("locations", mcp.Description("Served locations"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("tone", mcp.Description("Tone (default professional)"),
		mcp.Enum("professional", "friendly", "modern")),
	mcp.WithNumber("char_limit", mcp.Description("Maximum characters, 50-500 (default 200)")),
)

var catalogToolDef = mcp.NewTool("builder_service_catalog",
	mcp.WithDescription("List suggested services for a business type."),
	mcp.WithString("business_type", mcp.Required(), mcp.Description("Business type, e.g. salon")),
)

var checkDomainToolDef = mcp.NewTool("builder_check_domain",
	mcp.WithDescription("Report whether a domain name is available."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Domain name, e.g. mybakery.com")),
)
