package main

import (
	"fmt"
	"strings"

	"github.com/jmagar/streamgrab/internal/model"
	"github.com/jmagar/streamgrab/internal/ui"
)

func argsDescription() string {
	var b strings.Builder

	heading := func(title string) {
		fmt.Fprintf(&b, "\n%s◆ %s%s\n", ui.ColorBold, title, ui.ColorReset)
		fmt.Fprintf(&b, "%s─────────────────────────────────────────────────────────────────────────────%s\n", ui.ColorCyan, ui.ColorReset)
	}
	example := func(syntax string) {
		fmt.Fprintf(&b, "  %s▸%s %s%s%s\n", ui.ColorYellow, ui.ColorReset, ui.ColorCyan, syntax, ui.ColorReset)
	}
	note := func(text string) {
		fmt.Fprintf(&b, "  %s•%s %s\n", ui.ColorGreen, ui.ColorReset, text)
	}

	fmt.Fprintf(&b, "%s%s Save SSO-protected streaming videos with youtube-dl%s\n", ui.ColorBold, ui.SymbolVideo, ui.ColorReset)

	heading("EXAMPLES")
	example("streamgrab --username me@contoso.com --videoUrls https://web.microsoftstream.com/video/<id>")
	example("streamgrab --username me@contoso.com --videoUrls list.txt --outputDirectory lectures")
	example("streamgrab --username me@contoso.com --videoUrls <url> -f best -s -v")

	heading("NOTES")
	note("A visible Chrome window opens; finish the sign-in (and any MFA prompt) there.")
	note("A .txt argument to --videoUrls is read as one URL per line (# comments allowed).")
	note("Defaults can live in ./config.json, ~/.streamgrab/config.json or ~/.config/streamgrab/config.json.")
	note(fmt.Sprintf("Exit codes: %d downloader missing, %d output directory, %d bad URL, %d no HLS manifest,",
		model.ExitDownloaderMissing, model.ExitOutputDir, model.ExitMalformedURL, model.ExitManifestNotFound))
	fmt.Fprintf(&b, "    %d API error, %d login timeout, %d browser, %d download failed, %d cookies missing.\n",
		model.ExitAPIError, model.ExitAuthTimeout, model.ExitBrowser, model.ExitDispatch, model.ExitCredentialFailure)

	return b.String()
}
