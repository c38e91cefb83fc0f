package storage

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename приводит имя загруженного файла к безопасному ASCII-виду:
// раскладывает юникод (NFKD), отбрасывает не-ASCII, заменяет разделители путей и пробелы на "_",
// удаляет прочие символы и ведущие/хвостовые точки и подчёркивания.
// Может вернуть пустую строку.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}

	cleaned := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	cleaned = strings.Join(strings.Fields(cleaned), "_")
	cleaned = unsafeFilenameChars.ReplaceAllString(cleaned, "")
	return strings.Trim(cleaned, "._")
}
