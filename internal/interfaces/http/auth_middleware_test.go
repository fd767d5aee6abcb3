package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/internal/application/dto"
	pkgjwt "github.com/jhoicas/bodega-erp/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "bodega-erp-test"
)

// tokenForRole cabecera Authorization con un JWT del rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func withHeader(t *testing.T, app *fiber.App, method, path, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Matriz de permisos de las rutas de escritura. Un rol permitido llega al handler, que con el
// cuerpo vacío responde 400; uno no permitido se queda en 403.
func TestRouter_PermisosPorRol(t *testing.T) {
	app := buildAPI(t)
	routes := []struct {
		method, path string
		allowed      []string
	}{
		{http.MethodPost, "/api/purchases", []string{"admin", "compras"}},
		{http.MethodPut, "/api/purchases/x", []string{"admin", "compras"}},
		{http.MethodPost, "/api/inventory/items", []string{"admin", "compras"}},
		{http.MethodPost, "/api/inventory/consumptions", []string{"admin", "produccion", "ventas"}},
		{http.MethodPost, "/api/inventory/production-outputs", []string{"admin", "produccion"}},
		{http.MethodPost, "/api/inventory/adjustments", []string{"admin"}},
		{http.MethodPatch, "/api/inventory/batches/x/qc", []string{"admin", "produccion"}},
	}
	roles := []string{
		pkgjwt.RoleAdmin, pkgjwt.RoleCompras, pkgjwt.RoleProduccion, pkgjwt.RoleVentas, pkgjwt.RoleConsulta,
	}

	for _, rt := range routes {
		allowed := map[string]bool{}
		for _, r := range rt.allowed {
			allowed[r] = true
		}
		for _, role := range roles {
			resp := call(t, app, rt.method, rt.path, role, map[string]any{})
			if allowed[role] {
				assert.NotEqual(t, http.StatusForbidden, resp.StatusCode, "%s %s como %s", rt.method, rt.path, role)
				assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode, "%s %s como %s", rt.method, rt.path, role)
			} else {
				assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s como %s", rt.method, rt.path, role)
			}
		}
	}
}

func TestRouter_LecturasAbiertasATodoRol(t *testing.T) {
	app := buildAPI(t)
	for _, role := range []string{pkgjwt.RoleConsulta, pkgjwt.RoleVentas, pkgjwt.RoleProduccion} {
		resp := call(t, app, http.MethodGet, "/api/purchases", role, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, role)
		resp = call(t, app, http.MethodGet, "/api/inventory/items", role, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, role)
	}
}

func TestRouter_ProduccionRegistraSalidaPeroNoAjusta(t *testing.T) {
	app := buildAPI(t)
	wine := createItemAPI(t, app, "Vino tinto 75cl")

	resp := call(t, app, http.MethodPost, "/api/inventory/production-outputs", "produccion", map[string]any{
		"inventory_item_id": wine, "quantity": "120", "unit_cost": "2.10", "ref_id": "op-7",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	batch := decode[dto.ItemBatchResponse](t, resp)

	resp = call(t, app, http.MethodPost, "/api/inventory/adjustments", "produccion", dto.AdjustmentRequest{
		BatchID: batch.ID, QtyDelta: decimal.NewFromInt(-1), Notes: "rotura",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_CompraGuardaElUsuarioDelToken(t *testing.T) {
	app := buildAPI(t)
	corks := createItemAPI(t, app, "Corcho natural")

	resp := call(t, app, http.MethodPost, "/api/purchases", "compras", purchaseBody(corks, "10", "1.50"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[dto.CreatedResponse](t, resp).ID

	p := decode[dto.PurchaseResponse](t, call(t, app, http.MethodGet, "/api/purchases/"+id, "consulta", nil))
	assert.Equal(t, testUserID, p.CreatedBy)
}

func TestRouter_TokenAusenteOInvalido(t *testing.T) {
	app := buildAPI(t)

	foreign, err := pkgjwt.Generate("otro-secret", testUserID, "admin", testIssuer, 60)
	require.NoError(t, err)
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, "admin", testIssuer, -1)
	require.NoError(t, err)
	noRole, err := pkgjwt.Generate(testJWTSecret, testUserID, "", testIssuer, 60)
	require.NoError(t, err)

	cases := []struct {
		name, method, path, header, code string
	}{
		{"sin cabecera", http.MethodGet, "/api/purchases", "", "MISSING_TOKEN"},
		{"sin Bearer", http.MethodGet, "/api/purchases", "Token abc", "INVALID_TOKEN"},
		{"firma ajena", http.MethodGet, "/api/purchases", "Bearer " + foreign, "INVALID_TOKEN"},
		{"expirado", http.MethodGet, "/api/inventory/items", "Bearer " + expired, "INVALID_TOKEN"},
		{"sin rol en escritura", http.MethodPost, "/api/purchases", "Bearer " + noRole, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := withHeader(t, app, tc.method, tc.path, tc.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}

	resp := withHeader(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health no requiere token")
}
