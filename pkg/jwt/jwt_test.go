package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/pkg/jwt"
)

const secret = "clave-de-pruebas"

func TestGenerateParse(t *testing.T) {
	tok, err := jwt.Generate(secret, "u-42", jwt.RoleProduccion, "bodega-erp", 5)
	require.NoError(t, err)

	userID, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-42", userID)
	assert.Equal(t, jwt.RoleProduccion, role)
}

func TestParse_Rechazos(t *testing.T) {
	expired, err := jwt.Generate(secret, "u-42", jwt.RoleAdmin, "bodega-erp", -1)
	require.NoError(t, err)
	_, _, err = jwt.Parse(secret, expired)
	assert.Error(t, err, "expirado")

	tok, err := jwt.Generate(secret, "u-42", jwt.RoleAdmin, "bodega-erp", 5)
	require.NoError(t, err)
	_, _, err = jwt.Parse("otra-clave", tok)
	assert.Error(t, err, "firma con otra clave")

	_, _, err = jwt.Parse(secret, "no.es.un.jwt")
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u-42", jwt.RoleAdmin, "bodega-erp", 5)
	assert.Error(t, err)
	_, _, err = jwt.Parse("", "x")
	assert.Error(t, err)
}
