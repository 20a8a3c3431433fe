package quote_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lab/internal/quote"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newRouter(t *testing.T) (http.Handler, fixture) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	r.Route("/api/v1", func(v chi.Router) {
		quote.NewHandler(f.svc).Mount(v)
	})
	return r, f
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr.Code, env
}

func TestHandlerDocumentLifecycle(t *testing.T) {
	h, _ := newRouter(t)

	code, env := call(t, h, http.MethodPost, "/api/v1/documents", `{"kind":"quote","code":"Q-7"}`)
	require.Equal(t, http.StatusCreated, code)
	var view quote.View
	require.NoError(t, json.Unmarshal(env.Data, &view))
	docID := view.Document.ID
	sampleID := view.Samples[0].ID

	body := `{"kind":"add_line","sampleId":"` + sampleID + `","line":{"name":"COD","afterTaxAmount":"54.000","taxRate":8}}`
	code, env = call(t, h, http.MethodPost, "/api/v1/documents/"+docID+"/commands", body)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	near(t, 50_000, view.Samples[0].Lines[0].UnitPrice)
	lineID := env.Meta["lineId"].(string)

	body = `{"kind":"edit_line","sampleId":"` + sampleID + `","lineId":"` + lineID + `","field":"quantity","value":"3"}`
	code, env = call(t, h, http.MethodPost, "/api/v1/documents/"+docID+"/commands", body)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "forward", env.Meta["resolution"])
	require.NoError(t, json.Unmarshal(env.Data, &view))
	near(t, 162_000, view.Summary.Total)

	code, _ = call(t, h, http.MethodPost, "/api/v1/documents/"+docID+"/save", "")
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, h, http.MethodGet, "/api/v1/documents/"+docID+"?readonly=1", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Equal(t, "frozen", string(view.Mode))

	code, env = call(t, h, http.MethodGet, "/api/v1/documents/"+docID+"/export?readonly=true", "")
	require.Equal(t, http.StatusOK, code)
	var out quote.Export
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, "162.000", out.Total)
	require.Equal(t, "150.000", out.Subtotal)

	code, env = call(t, h, http.MethodDelete, "/api/v1/documents/"+docID+"/draft", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "DOCUMENT_NOT_FOUND", env.Error.Code)
}

func TestHandlerErrors(t *testing.T) {
	h, _ := newRouter(t)

	code, env := call(t, h, http.MethodPost, "/api/v1/documents", `{"kind":"invoice"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = call(t, h, http.MethodPost, "/api/v1/documents", `{`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "BAD_REQUEST", env.Error.Code)

	code, env = call(t, h, http.MethodGet, "/api/v1/documents/nope", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "DOCUMENT_NOT_FOUND", env.Error.Code)

	_, env = call(t, h, http.MethodPost, "/api/v1/documents", `{"kind":"order"}`)
	var view quote.View
	require.NoError(t, json.Unmarshal(env.Data, &view))

	code, env = call(t, h, http.MethodPost, "/api/v1/documents/"+view.Document.ID+"/commands", `{"kind":"explode"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "UNKNOWN_COMMAND", env.Error.Code)

	code, env = call(t, h, http.MethodPost, "/api/v1/documents/"+view.Document.ID+"/commands", `{"kind":"add_line","sampleId":"ghost"}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "SAMPLE_NOT_FOUND", env.Error.Code)
}

func TestHandlerTemplates(t *testing.T) {
	h, _ := newRouter(t)

	code, env := call(t, h, http.MethodPost, "/api/v1/templates", `{"name":"Nutrients","discountRate":"0","taxRate":10,"items":[{"parameterId":"no3","name":"Nitrate","netPrice":"25.000"}]}`)
	require.Equal(t, http.StatusCreated, code)
	var tmpl struct {
		ID         string  `json:"id"`
		ListPrice  float64 `json:"listPrice"`
		GrossPrice float64 `json:"grossPrice"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tmpl))
	near(t, 25_000, tmpl.ListPrice)
	near(t, 27_500, tmpl.GrossPrice)

	code, env = call(t, h, http.MethodPatch, "/api/v1/templates/"+tmpl.ID, `{"field":"grossPrice","value":55000}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "backsolved", env.Meta["resolution"])
	require.NoError(t, json.Unmarshal(env.Data, &tmpl))
	near(t, 50_000, tmpl.ListPrice)

	code, _ = call(t, h, http.MethodPost, "/api/v1/templates/"+tmpl.ID+"/items", `{"parameterId":"po4","netPrice":10000}`)
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, h, http.MethodDelete, "/api/v1/templates/"+tmpl.ID+"/items/no3", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &tmpl))
	near(t, 35_000, tmpl.ListPrice)

	code, env = call(t, h, http.MethodPost, "/api/v1/templates/"+tmpl.ID+"/items", `{"name":"no id"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = call(t, h, http.MethodGet, "/api/v1/templates/unknown", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "TEMPLATE_NOT_FOUND", env.Error.Code)
}
