package ops

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// TestTemplateWorkflow exercises the template lifecycle:
// upload → job → (conversion) → promote → list → download → delete upload
func TestTemplateWorkflow(t *testing.T) {
	ctx, database, cfg := setup(t)
	runner := &recordingRunner{}

	// 1. Upload
	upload, err := CreateUpload(ctx, database, cfg, CreateUploadInput{
		Filename: "portfolio.png",
		Notes:    "first draft",
		Image:    bytes.NewReader([]byte("png bytes")),
	})
	require.NoError(t, err)
	require.Equal(t, "portfolio", upload.Title)

	// 2. Job from a raw request body
	in, err := ParseCreateJob([]byte(`{"upload":"` + upload.ID + `","target":"DJANGO"}`))
	require.NoError(t, err)
	job, err := CreateJob(ctx, database, runner, *in)
	require.NoError(t, err)
	require.Equal(t, model.JobQueued, job.Status)
	require.Equal(t, []string{job.ID}, runner.submitted)

	// 3. Promotion before the conversion finished is refused
	_, err = PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: job.ID, Name: "Folio"})
	require.True(t, errors.Is(err, errors.ErrInvalidState))

	// 4. Conversion completes
	finishJob(t, ctx, database, cfg, job)
	job, err = GetJob(ctx, database, job.ID)
	require.NoError(t, err)
	require.True(t, job.HasArchive())

	// 5. Promote
	item, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{
		JobID:       job.ID,
		Name:        "Folio",
		Category:    "portfolio",
		Subcategory: "gallery",
	})
	require.NoError(t, err)
	require.Equal(t, job.ID, *item.SourceJobID)

	// 6. The library lists it
	lib, err := ListLibrary(ctx, database, ListLibraryInput{Category: "portfolio"})
	require.NoError(t, err)
	require.Len(t, lib.Items, 1)
	require.Equal(t, item.ID, lib.Items[0].ID)

	// 7. Deleting the upload removes the job but keeps the library item
	require.NoError(t, DeleteUpload(ctx, database, cfg, upload.ID))
	_, err = GetJob(ctx, database, job.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	file, err := LibraryArchive(ctx, database, cfg, item.ID)
	require.NoError(t, err)
	require.Equal(t, "Folio_django_template.zip", file.Filename)
}
