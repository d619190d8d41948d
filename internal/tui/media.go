package tui

import (
	"fmt"

	"github.com/dm/stockwatch/internal/format"
)

// renderMediaCard renders the live media status card:
//
//	Live Media (retries 2)
//	● ERROR
//	retrying in 3s · r to retry now
func renderMediaCard(app *App, cardWidth int) string {
	title := "Live Media"
	if app.media.RetryCount > 0 {
		title = fmt.Sprintf("Live Media (retries %d)", app.media.RetryCount)
	}

	switch {
	case app.media.HasError:
		detail := "r to retry now"
		if app.retryPending {
			detail = "retrying in " + format.FormatCountdown(app.nextRetry.Sub(app.now())) + " · " + detail
		}
		return renderPanelCard(title, "● ERROR", StyleDim.Render(detail), cardWidth, colorRed, StyleError)
	case app.hasFrame:
		detail := format.FormatBytes(int64(len(app.frame.Data)))
		if app.frame.ContentType != "" {
			detail += " " + sanitize(app.frame.ContentType)
		}
		detail += " · " + format.FormatAge(app.now().Sub(app.frame.LoadedAt))
		return renderPanelCard(title, "● LIVE", StyleDim.Render(detail), cardWidth, colorGreen, StyleDim)
	default:
		return renderPanelCard(title, "Loading...", StyleDim.Render("waiting for first frame"), cardWidth, colorYellow, StyleDim)
	}
}
