package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/usecase"
)

const previewRunes = 600

var (
	headColor   = color.New(color.FgCyan, color.Bold)
	directColor = color.New(color.FgGreen, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
	warnColor   = color.New(color.FgYellow, color.Bold)
)

func printReports(w io.Writer, reports []*model.IngestReport) {
	for _, r := range reports {
		status := directColor.Sprint("ok")
		if r.Failed() {
			status = warnColor.Sprint("failed")
		}
		dry := ""
		if r.DryRun {
			dry = dimColor.Sprint(" (dry run)")
		}

		_, _ = fmt.Fprintf(w, "%s %s%s\n", headColor.Sprint(r.Document), status, dry)
		_, _ = fmt.Fprintf(w, "  units %d  unchanged %d  embedded %d  upserted %d  deleted %d  dropped %d\n",
			r.Candidates, r.Unchanged, r.Embedded, r.Upserted, r.Deleted, r.Dropped)
		if r.Failed() {
			_, _ = fmt.Fprintf(w, "  %s embed %d  upsert %d\n",
				warnColor.Sprint("failures"), r.EmbedFailures, r.UpsertFailures)
		}
	}
}

func printRetrieval(w io.Writer, result *usecase.RetrievalResult, full bool) {
	if len(result.ArticleNumbers) > 0 {
		nums := make([]string, len(result.ArticleNumbers))
		for i, n := range result.ArticleNumbers {
			nums[i] = fmt.Sprint(n)
		}
		_, _ = fmt.Fprintf(w, "%s %s\n\n", dimColor.Sprint("articles:"), strings.Join(nums, ", "))
	}

	if result.NoSources {
		_, _ = fmt.Fprintln(w, warnColor.Sprint("No sources found"))
		return
	}

	for i, p := range result.Passages {
		kind := dimColor.Sprintf("%.3f", p.Score)
		if p.Direct {
			kind = directColor.Sprint("direct")
		}
		_, _ = fmt.Fprintf(w, "[%d] %s %s\n", i+1, headColor.Sprint(p.ID), kind)

		if title := passageTitle(p); title != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", title)
		}
		if p.SourceID != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", dimColor.Sprint(p.SourceID))
		}

		text := p.Text
		if !full {
			if cut := model.TruncateRunes(text, previewRunes); cut != text {
				text = cut + "…"
			}
		}
		_, _ = fmt.Fprintf(w, "\n%s\n\n", indent(text, "    "))
	}
}

func passageTitle(p *model.Passage) string {
	switch {
	case p.ArticleNumber > 0:
		title := fmt.Sprintf("%s, %d straipsnis", p.DocumentTitle, p.ArticleNumber)
		if p.ArticleTitle != "" {
			title += ". " + p.ArticleTitle
		}
		return title
	case p.CaseNumber != "":
		return fmt.Sprintf("%s, byla Nr. %s", p.DocumentTitle, p.CaseNumber)
	}
	return p.DocumentTitle
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
