package view

import "golang.org/x/text/language"

// Labels are the fixed strings the templates print.
type Labels struct {
	Lang        string
	Latest      string
	All         string
	Podcast     string
	Members     string
	Date        string
	Duration    string
	PlayEpisode string
	Back        string
}

var labelSets = map[language.Tag]Labels{
	language.BrazilianPortuguese: {
		Lang:        "pt-BR",
		Latest:      "Últimos lançamentos",
		All:         "Todos os episódios",
		Podcast:     "Podcast",
		Members:     "Integrantes",
		Date:        "Data",
		Duration:    "Duração",
		PlayEpisode: "Tocar episódio",
		Back:        "Voltar",
	},
	language.English: {
		Lang:        "en",
		Latest:      "Latest releases",
		All:         "All episodes",
		Podcast:     "Podcast",
		Members:     "Members",
		Date:        "Date",
		Duration:    "Duration",
		PlayEpisode: "Play episode",
		Back:        "Back",
	},
	language.Spanish: {
		Lang:        "es",
		Latest:      "Últimos lanzamientos",
		All:         "Todos los episodios",
		Podcast:     "Podcast",
		Members:     "Integrantes",
		Date:        "Fecha",
		Duration:    "Duración",
		PlayEpisode: "Reproducir episodio",
		Back:        "Volver",
	},
}

// LabelsFor returns the label set for tag, defaulting to pt-BR.
func LabelsFor(tag language.Tag) Labels {
	if labels, ok := labelSets[tag]; ok {
		return labels
	}
	return labelSets[language.BrazilianPortuguese]
}
