package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestTranslator(t *testing.T) {
	tests := []struct {
		locale string
		id     string
		data   Data
		want   string
	}{
		{"en", "ViewToday", nil, "Today"},
		{"ru", "ViewToday", nil, "Сегодня"},
		{"ru-RU", "CalendarWeek", nil, "Неделя"},
		{"de", "ViewToday", nil, "Today"},
		{"", "ViewUpcoming", nil, "Next 7 days"},
		{"en", "StatusCleared", Data{"Count": 3}, "Removed 3 completed tasks"},
		{"en", "NoSuchMessage", nil, "NoSuchMessage"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.id, func(t *testing.T) {
			tr, err := New(tt.locale, nil)
			require.NoError(t, err)
			if tt.data == nil {
				assert.Equal(t, tt.want, tr.T(tt.id))
				return
			}
			assert.Equal(t, tt.want, tr.T(tt.id, tt.data))
		})
	}
}

func TestTranslator_Languages(t *testing.T) {
	tr := MustNew("en")
	assert.ElementsMatch(t, []language.Tag{language.English, language.Russian}, tr.Languages())
}

func TestCataloguesMatch(t *testing.T) {
	en := MustNew("en")
	ru := MustNew("ru")
	for _, id := range []string{"ViewInbox", "EmptyDay", "SyncPushFailed", "HelpTitle", "EditorHint"} {
		assert.NotEqual(t, id, en.T(id))
		assert.NotEqual(t, id, ru.T(id))
	}
}
