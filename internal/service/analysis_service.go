package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/report"
	"github.com/viabilidade/backend/pkg/gemini"
)

// Analysis は AI が生成した事業性分析（Markdown）
type Analysis struct {
	Markdown    string    `json:"markdown"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AnalysisService は財務指標から事業性分析の文章を生成する
type AnalysisService interface {
	Analyze(ctx context.Context, project *model.Project) (*Analysis, error)
}

// AnalysisServiceImpl は AnalysisService の実装
type AnalysisServiceImpl struct {
	client gemini.Client // nil の場合は分析機能を無効化
}

// NewAnalysisService は AnalysisServiceImpl を生成する。client が nil なら Analyze は ErrAnalysisUnavailable を返す
func NewAnalysisService(client gemini.Client) AnalysisService {
	return &AnalysisServiceImpl{client: client}
}

func (s *AnalysisServiceImpl) Analyze(ctx context.Context, project *model.Project) (*Analysis, error) {
	if s.client == nil {
		return nil, ErrAnalysisUnavailable
	}
	m := feasibility.Compute(project)
	text, err := s.client.Generate(ctx, BuildAnalysisPrompt(m))
	if errors.Is(err, gemini.ErrNotConfigured) {
		return nil, ErrAnalysisUnavailable
	}
	if err != nil {
		slog.Error("analysis generation failed", "project", project.Name, "error", err)
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	return &Analysis{Markdown: report.CleanMarkdown(text), GeneratedAt: time.Now()}, nil
}

// BuildAnalysisPrompt は財務指標から 5 章構成の分析プロンプト（ポルトガル語）を組み立てる
func BuildAnalysisPrompt(m feasibility.Metrics) string {
	var b strings.Builder
	b.WriteString(`Você está atuando como um consultor sênior em análise de viabilidade para o setor de desenvolvimento imobiliário. Sua tarefa é gerar um relatório analítico e detalhado em português, utilizando os dados financeiros fornecidos.

Por favor, siga esta estrutura e aborde os seguintes pontos na análise:

1. **Avaliação Financeira do Projeto**
   Analise a saúde financeira geral do projeto: VGV Total, Custo Total, Lucro Bruto e, principalmente, a Margem de Lucro. Compare a margem com os benchmarks de mercado.

2. **Análise Detalhada dos Custos**
   Analise a composição do Custo Total e como cada componente (Custo Direto, Custo Indireto de Venda, Custo Indireto de Obra e Custo do Terreno) impacta a rentabilidade.

3. **Análise de Desempenho por Área e Custo Unitário**
   Avalie os indicadores por área construída (Custo Direto / m², Custo Indireto / m², Custo Total / m²) e o Índice AC / AP.

4. **Identificação de Riscos e Oportunidades**
   Aponte os principais riscos financeiros e sugira de 3 a 5 recomendações estratégicas e acionáveis.

5. **Conclusão e Próximos Passos**
   Resuma as descobertas mais importantes e dê uma perspectiva clara sobre a viabilidade geral do projeto.

Mantenha um tom formal, técnico e objetivo. Use as métricas fornecidas para fundamentar a análise.

**Dados do Projeto:**
`)
	name := m.ProjectName
	if name == "" {
		name = "Projeto Sem Nome"
	}
	fmt.Fprintf(&b, "- Nome: %s\n", name)
	fmt.Fprintf(&b, "- VGV Total: R$ %.2f\n", m.VGV)
	fmt.Fprintf(&b, "- Custo Total: R$ %.2f\n", m.TotalCost)
	fmt.Fprintf(&b, "- Lucro Bruto: R$ %.2f\n", m.Profit)
	fmt.Fprintf(&b, "- Margem de Lucro: %.2f%%\n", m.Margin)
	fmt.Fprintf(&b, "- Custo Direto: R$ %.2f\n", m.DirectCost)
	fmt.Fprintf(&b, "- Custo Indireto de Venda: R$ %.2f\n", m.IndirectSales)
	fmt.Fprintf(&b, "- Custo Indireto de Obra: R$ %.2f\n", m.IndirectSite)
	fmt.Fprintf(&b, "- Custo do Terreno: R$ %.2f\n", m.LandCost)
	fmt.Fprintf(&b, "- Área Privativa: %.2f m²\n", m.PrivateArea)
	fmt.Fprintf(&b, "- Área do Terreno: %.2f m²\n", m.LandArea)
	fmt.Fprintf(&b, "- Área Construída: %.2f m²\n", m.BuiltArea)
	fmt.Fprintf(&b, "- Índice AC / AP: %.2f\n", m.Indicators.BuiltToPrivate)
	fmt.Fprintf(&b, "- Composição do Custo (%%): Custo Direto %.2f; Custo Indireto de Venda %.2f; Custo Indireto de Obra %.2f; Custo do Terreno %.2f\n",
		m.Composition.Direct, m.Composition.IndirectSales, m.Composition.IndirectSite, m.Composition.Land)
	return b.String()
}
