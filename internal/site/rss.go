package site

import (
	"encoding/xml"
	"net/url"
	"time"

	"podcast-home/internal/homepage"
	"podcast-home/internal/httpx"
)

func buildRSSFeed(meta FeedMetadata, base *url.URL, requestPath string, snapshot homepage.Snapshot) ([]byte, error) {
	feedURL := *base
	feedURL.Path = requestPath

	channelLink := *base
	channelLink.Path = "/"

	rss := rssFeed{
		Version:  "2.0",
		AtomNS:   "http://www.w3.org/2005/Atom",
		ITunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: rssChannel{
			Title:         meta.Title,
			Link:          channelLink.String(),
			Description:   meta.Description,
			Language:      meta.Language,
			LastBuildDate: snapshot.GeneratedAt.UTC().Format(time.RFC1123Z),
			Generator:     "podcast-home",
			AtomLink: rssAtomLink{
				Href: feedURL.String(),
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}

	for _, ep := range snapshot.Episodes() {
		pageURL := *base
		pageURL.Path = "/episode/" + ep.ID

		item := rssItem{
			Title:          ep.Title,
			Link:           pageURL.String(),
			GUID:           rssGUID{IsPermaLink: "false", Value: ep.ID},
			Description:    ep.Members,
			ITunesDuration: ep.DurationAsString,
			ITunesAuthor:   ep.Members,
		}
		if ep.URL != "" {
			item.Enclosure = &rssEnclosure{URL: ep.URL, Type: httpx.MediaType(ep.URL)}
		}
		if ep.Thumbnail != "" {
			item.ITunesImage = &rssITunesImage{Href: ep.Thumbnail}
		}

		rss.Channel.Items = append(rss.Channel.Items, item)
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), output...), nil
}

type rssFeed struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	AtomNS   string     `xml:"xmlns:atom,attr"`
	ITunesNS string     `xml:"xmlns:itunes,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate"`
	Generator     string      `xml:"generator"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title          string          `xml:"title"`
	Link           string          `xml:"link"`
	GUID           rssGUID         `xml:"guid"`
	Description    string          `xml:"description"`
	Enclosure      *rssEnclosure   `xml:"enclosure,omitempty"`
	ITunesDuration string          `xml:"itunes:duration,omitempty"`
	ITunesAuthor   string          `xml:"itunes:author,omitempty"`
	ITunesImage    *rssITunesImage `xml:"itunes:image,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// rssEnclosure.Length is required by RSS 2.0. Display records carry no file
// size, so it is always 0, the value feed readers treat as unknown.
type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssITunesImage struct {
	Href string `xml:"href,attr"`
}
