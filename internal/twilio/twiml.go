package twilio

import (
	"encoding/xml"
	"fmt"
)

type voiceResponse struct {
	XMLName xml.Name  `xml:"Response"`
	Say     sayVerb   `xml:"Say"`
	Start   startVerb `xml:"Start"`
}

type sayVerb struct {
	Voice string `xml:"voice,attr"`
	Text  string `xml:",chardata"`
}

type startVerb struct {
	Stream streamNoun `xml:"Stream"`
}

type streamNoun struct {
	URL string `xml:"url,attr"`
}

// VoiceResponse builds the TwiML document for a new call: speak the
// greeting with the given voice, then open a bidirectional media stream to
// streamURL.
func VoiceResponse(greeting, voice, streamURL string) ([]byte, error) {
	doc := voiceResponse{
		Say:   sayVerb{Voice: voice, Text: greeting},
		Start: startVerb{Stream: streamNoun{URL: streamURL}},
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
