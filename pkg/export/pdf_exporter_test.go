package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPDFExporterRender(t *testing.T) {
	cert := Certificate{
		Title: "Comprobante de Matricula",
		Fields: []Field{
			{Label: "Numero", Value: "MAT-2025-000001"},
			{Label: "Estudiante", Value: "Maria Lopez (EST-000001)"},
		},
		Table: Dataset{
			Headers: []string{"Curso", "Creditos"},
			Rows:    []map[string]string{{"Curso": "Algebra", "Creditos": "4"}},
		},
		Footer: "Documento generado automaticamente",
	}

	out, err := NewPDFExporter().Render(cert)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresTitle(t *testing.T) {
	_, err := NewPDFExporter().Render(Certificate{})
	require.Error(t, err)
}
