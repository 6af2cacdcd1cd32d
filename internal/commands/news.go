package commands

import (
	"context"
	"fmt"
	"strings"

	"crypto-tracker-bot/lib/helpers"
)

func (r *Router) CommandNews(ctx context.Context) (string, error) {
	articles, err := r.news.Latest(ctx, newsLimit)
	if err != nil {
		return "", err
	}

	if len(articles) == 0 {
		return say("No news right now. Try again later."), nil
	}

	var b strings.Builder
	b.WriteString("*" + say("Latest crypto news:") + "*\n\n")
	for _, a := range articles {
		b.WriteString(fmt.Sprintf("▫️ [%s](%s)", helpers.EscapeMarkdownV2(a.Title), helpers.EscapeMarkdownV2URL(a.URL)))
		if a.Source != "" {
			b.WriteString(" _" + helpers.EscapeMarkdownV2(a.Source) + "_")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
