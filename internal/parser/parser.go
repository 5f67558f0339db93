package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"enhanced-search/internal/models"
)

// Source produces a snapshot of a document's visible text
type Source interface {
	Text(ctx context.Context) (string, error)
}

// StaticSource is a document whose text is already known
type StaticSource string

func (s StaticSource) Text(ctx context.Context) (string, error) {
	return string(s), nil
}

// FileSource reads the visible text of a local document
type FileSource struct {
	Path string
}

func (s FileSource) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := ReadText(s.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrFetch, s.Path, err)
	}
	return text, nil
}

// ReadText extracts plain text from a file, choosing the reader by extension
func ReadText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return readPDF(filePath)
	case ".docx":
		return readDOCX(filePath)
	case ".pptx":
		return readPPTX(filePath)
	case ".xlsx":
		return readXLSX(filePath)
	case ".xlsm", ".xltx", ".xltm":
		return readWorkbook(filePath)
	case ".md", ".markdown":
		return readMarkdown(filePath)
	case ".html", ".htm":
		f, err := os.Open(filePath)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return VisibleText(f)
	case ".txt", "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

func readPDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, strings.TrimSpace(pageText))
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func readDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return extractTextFromXML(r.Editable().GetContent(), "w:t", "w:p"), nil
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func readPPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	slides := map[string]string{}
	var order []string
	for _, file := range f.File {
		if !slideName.MatchString(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		slides[file.Name] = extractTextFromXML(string(data), "a:t", "a:p")
		order = append(order, file.Name)
	}

	// slide2 before slide10
	sortByNumber(order)
	var parts []string
	for _, name := range order {
		if t := strings.TrimSpace(slides[name]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func sortByNumber(names []string) {
	num := func(s string) int {
		n, _ := strconv.Atoi(slideName.FindStringSubmatch(s)[1])
		return n
	}
	sort.Slice(names, func(i, j int) bool {
		return num(names[i]) < num(names[j])
	})
}

func readXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		var rows []string
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				if v := strings.TrimSpace(cell.String()); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, "\t"))
			}
		}
		if len(rows) > 0 {
			sheets = append(sheets, sheet.Name+"\n"+strings.Join(rows, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}

func readWorkbook(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			sheets = append(sheets, sheetName+"\n"+strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}

func readMarkdown(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return MarkdownText(data)
}

// MarkdownText renders markdown and returns the text a reader would see
func MarkdownText(src []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return VisibleText(&buf)
}

// extractTextFromXML joins the contents of textTag elements, starting a new
// paragraph at every closing paraTag.
func extractTextFromXML(xmlContent, textTag, paraTag string) string {
	var text strings.Builder
	var para strings.Builder
	flush := func() {
		if t := strings.TrimSpace(para.String()); t != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(t)
		}
		para.Reset()
	}

	openPrefix := "<" + textTag
	closeText := "</" + textTag + ">"
	closePara := "</" + paraTag + ">"
	rest := xmlContent
	for {
		open := strings.Index(rest, openPrefix)
		end := strings.Index(rest, closePara)
		if open < 0 && end < 0 {
			break
		}
		if end >= 0 && (open < 0 || end < open) {
			flush()
			rest = rest[end+len(closePara):]
			continue
		}
		// skip over <w:tab/>, <w:tbl> and similar tags sharing the prefix
		after := rest[open+len(openPrefix):]
		if len(after) == 0 || (after[0] != '>' && after[0] != ' ') {
			rest = after
			continue
		}
		start := strings.IndexByte(after, '>')
		if start < 0 || (start > 0 && after[start-1] == '/') {
			rest = after
			continue
		}
		body := after[start+1:]
		stop := strings.Index(body, closeText)
		if stop < 0 {
			break
		}
		para.WriteString(unescapeXML(body[:stop]))
		rest = body[stop+len(closeText):]
	}
	flush()
	return text.String()
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
