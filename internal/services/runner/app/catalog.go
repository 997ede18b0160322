package server

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/validation"
)

// loadCatalog loads shipped quests, then user overrides, and logs the
// validation summary. Broken files are skipped with a log line.
func loadCatalog(shippedDir, overrideDir string) *quest.Registry {
	reg := quest.NewRegistry()
	loadDir(reg, shippedDir, quest.SourceShipped)
	loadDir(reg, overrideDir, quest.SourceUserDirectory)

	issues := validation.ValidateAll(reg.All())
	summary := validation.Summarize(issues)
	log.Printf("quest catalog loaded: quests=%d errors=%d warnings=%d", reg.Count(), summary.Errors, summary.Warnings)
	for _, issue := range issues {
		log.Printf("quest validation: quest=%s sequence=%d severity=%s %s", issue.QuestID, issue.Sequence, issue.Severity, issue.Description)
	}
	return reg
}

func loadDir(reg *quest.Registry, dir string, source quest.Source) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("quest catalog dir %s: %v", dir, err)
		}
		return
	}
	result, err := quest.Load(reg, os.DirFS(dir), source)
	if err != nil {
		log.Printf("quest catalog %s: skipped=%d err=%v", dir, result.Skipped, err)
	}
	log.Printf("quest catalog %s: loaded=%d skipped=%d", dir, result.Loaded, result.Skipped)
}
