package migrationbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want CreateRequest
	}{
		{
			name: "bare values",
			text: "channelId=C123 clientEmail=a@x.com plan=Pro",
			want: CreateRequest{ChannelID: "C123", ClientEmail: "a@x.com", Plan: "Pro"},
		},
		{
			name: "quoted values keep spaces",
			text: `clientEmail=a@x.com plan="Pro anual" notes="migrar antes del viernes"`,
			want: CreateRequest{ChannelID: "U42", ClientEmail: "a@x.com", Plan: "Pro anual", Notes: "migrar antes del viernes"},
		},
		{
			name: "missing channelId falls back to user DM",
			text: "clientEmail=a@x.com",
			want: CreateRequest{ChannelID: "U42", ClientEmail: "a@x.com"},
		},
		{
			name: "legacy extraInfo key maps to notes",
			text: `clientEmail=a@x.com extraInfo="cliente VIP"`,
			want: CreateRequest{ChannelID: "U42", ClientEmail: "a@x.com", Notes: "cliente VIP"},
		},
		{
			name: "unknown keys and stray text ignored",
			text: "por favor clientEmail=a@x.com urgente=mucho",
			want: CreateRequest{ChannelID: "U42", ClientEmail: "a@x.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommandText(tt.text, "U42")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandTextValidation(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty text", text: ""},
		{name: "no clientEmail", text: `channelId=C123 plan=Pro`},
		{name: "free text without pairs", text: "migrar al cliente por favor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommandText(tt.text, "U42")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "ClientEmail")
		})
	}
}
