package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/application/document"
	projectapp "github.com/solarerp/backend/internal/application/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectHandler_QuoteToProject(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/quotes", map[string]any{
		"client_id":  uuid.New(),
		"name":       "Residencia Souza 6kWp",
		"sale_price": "30000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quote := decode[projectapp.QuoteResponse](t, w).Data
	assert.Equal(t, "DRAFT", quote.Status)

	// a draft quote cannot be sold
	w = f.do(t, http.MethodPost, "/sales", map[string]any{
		"quote_id": quote.ID, "total_amount": "30000", "payment_method": "CASH", "installment_count": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/quotes/"+quote.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "APPROVED", decode[projectapp.QuoteResponse](t, w).Data.Status)

	w = f.do(t, http.MethodPost, "/quotes/"+quote.ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/sales", map[string]any{
		"quote_id": quote.ID, "total_amount": "30000", "payment_method": "CASH", "installment_count": 1,
		"site_address": "Rua das Flores 120, Campinas",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/quotes/"+quote.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	linked := decode[projectapp.QuoteResponse](t, w).Data
	require.NotNil(t, linked.ProjectID)
	projectPath := "/projects/" + linked.ProjectID.String()

	w = f.do(t, http.MethodPost, projectPath+"/tasks", map[string]any{"title": "Homologacao", "due_date": "2026-11-30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[projectapp.TaskResponse](t, w).Data
	assert.Equal(t, "TODO", task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-11-30", task.DueDate.Format("2006-01-02"))

	w = f.do(t, http.MethodPost, projectPath+"/tasks", map[string]any{"title": "Vistoria", "due_date": "30/11/2026"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, projectPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	proj := decode[projectapp.ProjectResponse](t, w).Data
	assert.Equal(t, quote.ID, proj.QuoteID)
	assert.Equal(t, "Rua das Flores 120, Campinas", proj.SiteAddress)
	require.Len(t, proj.Tasks, 1)
	assert.Equal(t, "Homologacao", proj.Tasks[0].Title)

	w = f.do(t, http.MethodGet, "/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (f *apiFixture) upload(t *testing.T, path, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestDocumentHandler_Lifecycle(t *testing.T) {
	f := newAPIFixture(t)
	p := f.projectWithQuote(t)
	path := "/documents/project/" + p.ID.String()

	w := f.upload(t, path, "art.pdf", []byte("%PDF-1.4 art"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[document.DocumentResponse](t, w).Data
	assert.Equal(t, "art.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Contains(t, doc.DownloadURL, f.tenantID.String()+"/project/"+p.ID.String()+"/art.pdf")

	w = f.upload(t, path, "memorial.pdf", []byte("%PDF-1.4 memorial"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]document.DocumentResponse](t, w).Data
	require.Len(t, docs, 2)
	assert.Equal(t, "art.pdf", docs[0].FileName)

	w = f.do(t, http.MethodDelete, path+"/art.pdf", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodDelete, path+"/art.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, path, nil)
	assert.Len(t, decode[[]document.DocumentResponse](t, w).Data, 1)
}

func TestDocumentHandler_Rejections(t *testing.T) {
	f := newAPIFixture(t)
	owner := uuid.NewString()

	w := f.upload(t, "/documents/sale/"+owner, "big.pdf", []byte(strings.Repeat("x", 2048)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "ERR_FILE_TOO_LARGE", errorCode(t, w))

	w = f.upload(t, "/documents/invoice/"+owner, "nf.pdf", []byte("nf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_INPUT", errorCode(t, w))

	w = f.upload(t, "/documents/sale/not-a-uuid", "nf.pdf", []byte("nf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/documents/sale/"+owner, map[string]any{"file": "inline"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_BAD_REQUEST", errorCode(t, w))
}
