package migrationbot

import (
	"regexp"
	"strings"
)

// Slash commands arrive as free text like:
//
//	clientEmail=a@x.com plan="Pro anual" notes="migrar antes del viernes"
//
// Values may be bare tokens or double-quoted to allow spaces.
var argPattern = regexp.MustCompile(`(\w+)=("[^"]*"|\S+)`)

// ParseCommandText extracts key=value arguments from a slash command
// into a validated CreateRequest. Unknown keys are ignored. When no
// channelId is given the checklist goes to the invoking user's DM.
func ParseCommandText(text, userID string) (CreateRequest, error) {
	args := make(map[string]string)
	for _, m := range argPattern.FindAllStringSubmatch(text, -1) {
		args[m[1]] = strings.Trim(m[2], `"`)
	}

	req := CreateRequest{
		ChannelID:   args["channelId"],
		ClientEmail: args["clientEmail"],
		Plan:        args["plan"],
		RenewalDate: args["renewalDate"],
		Notes:       args["notes"],
	}
	if req.Notes == "" {
		// Legacy key from the first command version.
		req.Notes = args["extraInfo"]
	}
	if req.ChannelID == "" {
		req.ChannelID = userID
	}

	if err := req.Validate(); err != nil {
		return CreateRequest{}, err
	}
	return req, nil
}
