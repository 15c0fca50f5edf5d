package factcheck

import (
	"net/url"

	"github.com/citecheck/citecheck/internal/model"
)

// Site is one catalog entry. Only entries with a SearchURL template can be
// queried live; the rest still contribute to attribution and deep links.
type Site struct {
	Name      string
	SearchURL string // search page prefix; the encoded query is appended
	Domain    string
}

// Catalog lists known fact-checking organizations. Search-capable entries
// come first so the per-request site cap selects them in a stable order.
var Catalog = []Site{
	{Name: "Snopes", SearchURL: "https://www.snopes.com/?s=", Domain: "snopes.com"},
	{Name: "PolitiFact", SearchURL: "https://www.politifact.com/search/?q=", Domain: "politifact.com"},
	{Name: "FactCheck.org", SearchURL: "https://www.factcheck.org/?s=", Domain: "factcheck.org"},
	{Name: "Full Fact", SearchURL: "https://fullfact.org/search/?q=", Domain: "fullfact.org"},
	{Name: "AFP Fact Check", SearchURL: "https://factcheck.afp.com/search?query=", Domain: "factcheck.afp.com"},
	{Name: "Correctiv Faktencheck", SearchURL: "https://correctiv.org/faktencheck/?s=", Domain: "correctiv.org"},
	{Name: "EUvsDisinfo", SearchURL: "https://euvsdisinfo.eu/?s=", Domain: "euvsdisinfo.eu"},
	{Name: "Africa Check", SearchURL: "https://africacheck.org/?s=", Domain: "africacheck.org"},
	{Name: "Reuters Fact Check", Domain: "reuters.com"},
	{Name: "AP Fact Check", Domain: "apnews.com"},
	{Name: "BBC Reality Check", Domain: "bbc.com"},
	{Name: "Washington Post Fact Checker", Domain: "washingtonpost.com"},
	{Name: "USA Today Fact Check", Domain: "usatoday.com"},
	{Name: "ARD Faktenfinder", Domain: "tagesschau.de"},
	{Name: "DW Fact Check", Domain: "dw.com"},
	{Name: "Science Feedback", Domain: "science.feedback.org"},
	{Name: "Health Feedback", Domain: "healthfeedback.org"},
	{Name: "Climate Feedback", Domain: "climatefeedback.org"},
	{Name: "Le Monde Les Décodeurs", Domain: "lemonde.fr"},
	{Name: "Newtral", Domain: "newtral.es"},
	{Name: "Maldita.es", Domain: "maldita.es"},
	{Name: "Chequeado", Domain: "chequeado.com"},
	{Name: "Pagella Politica", Domain: "pagellapolitica.it"},
	{Name: "Alt News", Domain: "altnews.in"},
	{Name: "BoomLive", Domain: "boomlive.in"},
	{Name: "Teyit", Domain: "teyit.org"},
	{Name: "Rappler Fact Check", Domain: "rappler.com"},
	{Name: "Skeptical Science", Domain: "skepticalscience.com"},
}

// searchableSites returns catalog entries with a live search template.
func searchableSites() []Site {
	var sites []Site
	for _, s := range Catalog {
		if s.SearchURL != "" {
			sites = append(sites, s)
		}
	}
	return sites
}

// SearchLinks builds direct "search this claim on site X" deep links for
// every search-capable catalog entry plus the Google Fact Check Explorer.
// Pure: no network access, usable as a fallback when live lookup is empty.
func SearchLinks(query string) []model.SearchLink {
	encoded := url.QueryEscape(query)

	var links []model.SearchLink
	for _, site := range searchableSites() {
		links = append(links, model.SearchLink{
			Name: site.Name,
			URL:  site.SearchURL + encoded,
		})
	}
	links = append(links, model.SearchLink{
		Name: "Google Fact Check Explorer",
		URL:  "https://toolbox.google.com/factcheck/explorer/search/" + encoded,
	})
	return links
}
