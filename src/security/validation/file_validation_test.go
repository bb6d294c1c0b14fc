package validation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

func TestValidateImportFileExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		platform models.TradePlatform
		wantErr  bool
	}{
		{name: "csv for cmc", filename: "history.csv", platform: models.PlatformCMCMarkets, wantErr: false},
		{name: "uppercase extension", filename: "HISTORY.CSV", platform: models.PlatformCMCMarkets, wantErr: false},
		{name: "html for mt4", filename: "Statement.html", platform: models.PlatformMetaTrader4, wantErr: false},
		{name: "htm for mt4", filename: "Statement.htm", platform: models.PlatformMetaTrader4, wantErr: false},
		{name: "html for cmc rejected", filename: "history.html", platform: models.PlatformCMCMarkets, wantErr: true},
		{name: "csv for mt4 rejected", filename: "history.csv", platform: models.PlatformMetaTrader4, wantErr: true},
		{name: "no extension", filename: "history", platform: models.PlatformCMCMarkets, wantErr: true},
		{name: "undefined platform", filename: "history.csv", platform: models.PlatformUndefined, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImportFileExtension(tt.filename, tt.platform)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	text := bytes.NewReader([]byte("Time,Type,Order number\n24/08/2022 11:23,Buy Trade,O1\n"))
	contentType, err := ValidateFileContentByMagicBytes(text)
	require.NoError(t, err)
	assert.Contains(t, contentType, "text/")

	// Reader must be rewound for the parser.
	buf := make([]byte, 4)
	n, _ := text.Read(buf)
	assert.Equal(t, "Time", string(buf[:n]))
}

func TestValidateFileContentRejectsBinary(t *testing.T) {
	png := bytes.NewReader([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0})
	_, err := ValidateFileContentByMagicBytes(png)
	assert.Error(t, err)
}
