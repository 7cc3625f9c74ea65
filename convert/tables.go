package convert

// ColorScheme is the display palette of a category.
type ColorScheme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

var defaultColors = ColorScheme{Primary: "#6366F1", Secondary: "#4F46E5", Accent: "#818CF8"}

var categoryColors = map[string]ColorScheme{
	"wellness":                   {"#059669", "#047857", "#34D399"},
	"health_fitness":             {"#EF4444", "#DC2626", "#F87171"},
	"nutrition":                  {"#F59E0B", "#D97706", "#FCD34D"},
	"science_tech":               {"#3B82F6", "#2563EB", "#60A5FA"},
	"history_culture":            {"#8B5CF6", "#7C3AED", "#A78BFA"},
	"arts_creativity":            {"#EC4899", "#DB2777", "#F472B6"},
	"business_finance":           {"#10B981", "#059669", "#34D399"},
	"personal_development":       {"#6366F1", "#4F46E5", "#818CF8"},
	"education_learning":         {"#14B8A6", "#0D9488", "#2DD4BF"},
	"environment_sustainability": {"#22C55E", "#16A34A", "#4ADE80"},
	"travel_geography":           {"#0EA5E9", "#0284C7", "#38BDF8"},
	"sports_recreation":          {"#F97316", "#EA580C", "#FB923C"},
	"cooking_culinary":           {"#A855F7", "#9333EA", "#C084FC"},
	"parenting_family":           {"#E11D48", "#BE123C", "#FB7185"},
	"spirituality_philosophy":    {"#9333EA", "#7C3AED", "#A78BFA"},
}

var defaultTagLabels = []string{"Conteúdo", "Educativo"}

var categoryTagLabels = map[string][]string{
	"wellness":                   {"Bem-estar", "Saúde", "Qualidade de Vida", "Autocuidado"},
	"health_fitness":             {"Fitness", "Exercícios", "Vida Ativa", "Condicionamento"},
	"nutrition":                  {"Nutrição", "Alimentação", "Dieta", "Vida Saudável"},
	"science_tech":               {"Ciência", "Tecnologia", "Inovação", "Descobertas"},
	"history_culture":            {"História", "Cultura", "Patrimônio", "Tradições"},
	"arts_creativity":            {"Arte", "Criatividade", "Expressão", "Design"},
	"business_finance":           {"Negócios", "Finanças", "Empreendedorismo", "Investimentos"},
	"personal_development":       {"Desenvolvimento Pessoal", "Crescimento", "Habilidades", "Motivação"},
	"education_learning":         {"Educação", "Aprendizado", "Conhecimento", "Ensino"},
	"environment_sustainability": {"Meio Ambiente", "Sustentabilidade", "Ecologia", "Verde"},
	"travel_geography":           {"Viagem", "Geografia", "Destinos", "Aventura"},
	"sports_recreation":          {"Esportes", "Recreação", "Atividades", "Lazer"},
	"cooking_culinary":           {"Culinária", "Gastronomia", "Receitas", "Cozinha"},
	"parenting_family":           {"Família", "Parentalidade", "Crianças", "Educação Familiar"},
	"spirituality_philosophy":    {"Espiritualidade", "Filosofia", "Meditação", "Mindfulness"},
}

var expertiseByCategory = map[string][]string{
	"wellness":         {"Bem-estar", "Saúde Mental", "Autocuidado"},
	"health_fitness":   {"Fitness", "Saúde Física", "Exercícios"},
	"nutrition":        {"Nutrição", "Alimentação Saudável", "Dietas"},
	"science_tech":     {"Ciência", "Tecnologia", "Inovação"},
	"business_finance": {"Negócios", "Finanças", "Empreendedorismo"},
}

var defaultTitles = []string{"Conteúdo Educativo", "Aprendizado Interativo"}

var titlesByCategory = map[string][]string{
	"wellness":             {"Jornada do Bem-estar", "Caminhos para o Equilíbrio", "Vida em Harmonia"},
	"health_fitness":       {"Transforme seu Corpo", "Fitness para Todos", "Saúde em Movimento"},
	"nutrition":            {"Nutrindo sua Vida", "Alimentação Consciente", "Sabor e Saúde"},
	"science_tech":         {"Descobertas Fascinantes", "Ciência do Dia a Dia", "Tecnologia que Transforma"},
	"personal_development": {"Crescimento Pessoal", "Desenvolvendo Potenciais", "Jornada de Evolução"},
}

var defaultOutcomes = []string{"Adquirir novos conhecimentos", "Aplicar conceitos na prática"}

var outcomesByCategory = map[string][]string{
	"wellness": {
		"Desenvolver práticas de autocuidado diário",
		"Identificar sinais de bem-estar físico e mental",
		"Criar rotinas saudáveis sustentáveis",
	},
	"health_fitness": {
		"Executar exercícios com técnica correta",
		"Planejar rotinas de treino eficazes",
		"Compreender princípios de condicionamento físico",
	},
	"nutrition": {
		"Fazer escolhas alimentares conscientes",
		"Planejar refeições balanceadas",
		"Compreender nutrientes essenciais",
	},
}

// lookup returns table[key] or fallback for unknown keys.
func lookup[V any](table map[string]V, key string, fallback V) V {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}
