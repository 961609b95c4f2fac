package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/model"
)

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.DirectPhases, 12)
	assert.Len(t, c.IndirectCosts, 13)
	assert.Len(t, c.FloorTypes, 14)
	assert.Len(t, c.SiteAdministration, 9)
	assert.Equal(t, 12, c.Defaults.DurationMonths)
	assert.Equal(t, 4500.0, c.Defaults.ConstructionCostPerM2)
	assert.Equal(t, "Pavimento Tipo", c.Defaults.Floor.Name)
	assert.True(t, c.Defaults.Floor.Constr)
}

func TestBounds(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	direct, err := c.Bounds(model.KindDirect)
	require.NoError(t, err)
	assert.Equal(t, allocation.Bounds{Min: 14, Default: 16, Max: 22}, direct["Estrutura (Supraestrutura)"])

	indirect, err := c.Bounds(model.KindIndirect)
	require.NoError(t, err)
	assert.Equal(t, allocation.Bounds{Min: 3, Default: 3.61, Max: 5}, indirect["Corretagem"])

	_, err = c.Bounds(model.Kind("other"))
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestOrder_KeepsFileOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	order := c.Order(model.KindDirect)
	assert.Equal(t, "Serviços Preliminares e Fundações", order[0])
	assert.Equal(t, "Serviços Complementares e Externos", order[len(order)-1])
}

func TestCUBValue(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	v, ok := c.CUBValue("SP", "R-16")
	assert.True(t, ok)
	assert.Equal(t, 4500.0, v)

	_, ok = c.CUBValue("XX", "R-16")
	assert.False(t, ok)
	_, ok = c.CUBValue("SP", "X")
	assert.False(t, ok)
	assert.Equal(t, []string{"AC", "MG", "RJ", "RS", "SP"}, c.CUBStates())
}

func TestNewProject_Defaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p := c.NewProject("Residencial Aurora")
	assert.Equal(t, "Residencial Aurora", p.Name)
	assert.Len(t, p.DirectAllocation, 12)
	assert.Len(t, p.IndirectAllocation, 13)
	assert.Len(t, p.SiteAdministration, 9)
	assert.Equal(t, 8.0, p.DirectAllocation["Serviços Preliminares e Fundações"].Percentual)
	assert.Equal(t, allocation.FonteManual, p.IndirectAllocation["IPTU"].Fonte)
	require.Len(t, p.Floors, 1)
	assert.Equal(t, 100.0, p.Floors[0].Area)
}

func TestNormalize_KeepsUserValues(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p := &model.Project{
		DirectAllocation:   allocation.Set{"Pintura": {Percentual: 7, Fonte: "Ed. Solar"}, "Obsoleto": {Percentual: 3}},
		SiteAdministration: map[string]float64{"Consumo de Água": 900},
	}
	c.Normalize(p)

	assert.Equal(t, allocation.Item{Percentual: 7, Fonte: "Ed. Solar"}, p.DirectAllocation["Pintura"])
	assert.NotContains(t, p.DirectAllocation, "Obsoleto")
	assert.Len(t, p.DirectAllocation, 12)
	assert.Equal(t, 900.0, p.SiteAdministration["Consumo de Água"])
	assert.Equal(t, 15000.0, p.SiteAdministration["Administração de Obra (Engenheiro/Arquiteto)"])
	assert.Equal(t, 12, p.DurationMonths)
}

func TestLoad_RejectsBadBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
defaults:
  duracao_obra: 12
direct_phases:
  - {name: A, min: 5, default: 2, max: 10}
indirect_costs:
  - {name: B, min: 0, default: 1, max: 2}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
defaults:
  duracao_obra: 12
direct_phases:
  - {name: A, min: 0, default: 1, max: 2}
  - {name: A, min: 0, default: 1, max: 2}
indirect_costs:
  - {name: B, min: 0, default: 1, max: 2}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
defaults:
  duracao_obra: 6
  custo_area_privativa: 3000
direct_phases:
  - {name: A, min: 0, default: 60, max: 100}
  - {name: B, min: 0, default: 40, max: 100}
indirect_costs:
  - {name: C, min: 0, default: 5, max: 10}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Defaults.DurationMonths)
	assert.Equal(t, 3000.0, c.Defaults.ConstructionCostPerM2)
	assert.Equal(t, []string{"A", "B"}, c.Order(model.KindDirect))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
