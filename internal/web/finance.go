package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpungsan/studio/internal/finance"
)

// --- vendors ---

func (h *Handlers) HandleListVendors(w http.ResponseWriter, r *http.Request) {
	list, err := finance.ListVendors(r.Context(), h.db, ownerFrom(r))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var in finance.VendorInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	v, err := finance.CreateVendor(r.Context(), h.db, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, v)
}

func (h *Handlers) HandleGetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := finance.GetVendor(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, v)
}

func (h *Handlers) HandleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	var in finance.VendorInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	v, err := finance.UpdateVendor(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"], in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, v)
}

func (h *Handlers) HandleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := finance.DeleteVendor(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- categories ---

func (h *Handlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := finance.ListCategories(r.Context(), h.db, ownerFrom(r), r.URL.Query().Get("type"))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in finance.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	c, err := finance.CreateCategory(r.Context(), h.db, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, c)
}

func (h *Handlers) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := finance.GetCategory(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, c)
}

func (h *Handlers) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in finance.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	c, err := finance.UpdateCategory(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"], in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, c)
}

func (h *Handlers) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := finance.DeleteCategory(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- payment methods ---

func (h *Handlers) HandleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	list, err := finance.ListPaymentMethods(r.Context(), h.db, ownerFrom(r))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var in finance.PaymentMethodInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	m, err := finance.CreatePaymentMethod(r.Context(), h.db, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, m)
}

func (h *Handlers) HandleGetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	m, err := finance.GetPaymentMethod(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

func (h *Handlers) HandleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var in finance.PaymentMethodInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	m, err := finance.UpdatePaymentMethod(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"], in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

func (h *Handlers) HandleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := finance.DeletePaymentMethod(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- expenses ---

func expenseFilters(r *http.Request) finance.ListExpensesInput {
	q := r.URL.Query()
	return finance.ListExpensesInput{
		From:       q.Get("from"),
		To:         q.Get("to"),
		VendorID:   q.Get("vendor_id"),
		CategoryID: q.Get("category_id"),
		MethodID:   q.Get("method_id"),
		Paid:       q.Get("paid"),
	}
}

// HandleListExpenses handles GET /api/finance/expenses.
func (h *Handlers) HandleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := finance.ListExpenses(r.Context(), h.db, ownerFrom(r), expenseFilters(r))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in finance.ExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	e, err := finance.CreateExpense(r.Context(), h.db, h.cfg, ownerFrom(r), in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, e)
}

func (h *Handlers) HandleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := finance.GetExpense(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, e)
}

func (h *Handlers) HandleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in finance.ExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		renderError(w, err)
		return
	}
	e, err := finance.UpdateExpense(r.Context(), h.db, h.cfg, ownerFrom(r), mux.Vars(r)["id"], in)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, e)
}

func (h *Handlers) HandleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := finance.DeleteExpense(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"]); err != nil {
		renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkPaid handles POST /api/finance/expenses/{id}/mark-paid. The
// body is optional.
func (h *Handlers) HandleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var in finance.MarkPaidInput
	raw, err := readBody(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := unmarshalBody(raw, &in); err != nil {
			renderError(w, err)
			return
		}
	}
	out, err := finance.MarkPaid(r.Context(), h.db, ownerFrom(r), mux.Vars(r)["id"], in, h.now())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleImportExpenses handles POST /api/finance/expenses/import (multipart
// "file").
func (h *Handlers) HandleImportExpenses(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.parseMultipart(w, r, "file")
	if err != nil {
		renderError(w, err)
		return
	}
	var (
		src  io.Reader
		name string
	)
	if file != nil {
		defer file.Close()
		src, name = file, header.Filename
	}

	owner := ownerFrom(r)
	res, err := finance.ImportCSV(r.Context(), h.db, h.cfg, owner, name, src)
	if err != nil {
		renderError(w, err)
		return
	}
	h.logger.Info("expenses.imported", "owner", owner, "created", res.CreatedCount, "skipped", res.SkippedCount)
	renderJSON(w, http.StatusOK, res)
}

// HandleExpenseSummary handles GET /api/finance/expenses/summary.
func (h *Handlers) HandleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	out, err := finance.Summary(r.Context(), h.db, h.cfg, ownerFrom(r), r.URL.Query().Get("period"), h.now())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleExportExpenses handles GET /api/finance/expenses/export.xlsx.
func (h *Handlers) HandleExportExpenses(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := finance.ExportXLSX(r.Context(), h.db, ownerFrom(r), expenseFilters(r), &buf, h.logger); err != nil {
		renderError(w, err)
		return
	}
	name := fmt.Sprintf("expenses_%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
