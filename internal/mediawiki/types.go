package mediawiki

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type allPagesResponse struct {
	Query struct {
		AllPages []struct {
			Title  string `json:"title"`
			NS     int    `json:"ns"`
			PageID int64  `json:"pageid"`
		} `json:"allpages"`
	} `json:"query"`
	Continue struct {
		APContinue string `json:"apcontinue"`
	} `json:"continue"`
}

type parseResponse struct {
	Parse struct {
		Title    string       `json:"title"`
		PageID   int64        `json:"pageid"`
		Text     flexibleText `json:"text"`
		Wikitext flexibleText `json:"wikitext"`
	} `json:"parse"`
}

type cargoResponse struct {
	CargoQuery []struct {
		Title struct {
			Developers *string `json:"Developers"`
			Publisher  *string `json:"Publisher"`
			Released   *string `json:"Released"`
			CoverURL   *string `json:"Cover_URL"`
		} `json:"title"`
	} `json:"cargoquery"`
}

// flexibleText accepts both the formatversion=2 string form and the legacy
// {"*": "..."} object form of parse output.
type flexibleText string

func (t *flexibleText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = flexibleText(s)
		return nil
	case '{':
		var wrapped struct {
			Star string `json:"*"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		*t = flexibleText(wrapped.Star)
		return nil
	default:
		return fmt.Errorf("unexpected parse text payload %.32q", data)
	}
}
