package filestore

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"tms-portal/internal/models"
)

type TypeFilter string

const (
	TypeAll   TypeFilter = "All"
	TypePDF   TypeFilter = "PDF"
	TypeImage TypeFilter = "Image"
	TypeWord  TypeFilter = "Word"
	TypeExcel TypeFilter = "Excel"
)

type SortBy string

const (
	SortName SortBy = "name"
	SortType SortBy = "type"
	SortDate SortBy = "date"
)

// Filter narrows and orders an uploads listing.
type Filter struct {
	Search string
	Type   TypeFilter
	Sort   SortBy
}

func ParseTypeFilter(s string) (TypeFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TypeAll, nil
	case "pdf":
		return TypePDF, nil
	case "image", "images":
		return TypeImage, nil
	case "word":
		return TypeWord, nil
	case "excel":
		return TypeExcel, nil
	}
	return "", fmt.Errorf("unknown file type filter %q", s)
}

func ParseSort(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortName:
		return SortName, nil
	case SortType:
		return SortType, nil
	case SortDate:
		return SortDate, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// KindOf classifies a file by extension; it drives the preview shown to users.
func KindOf(name string) models.FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.KindPDF
	case ".jpg", ".jpeg", ".png":
		return models.KindImage
	case ".docx":
		return models.KindWord
	case ".xlsx":
		return models.KindExcel
	case ".txt", ".py", ".csv", ".log":
		return models.KindText
	}
	return models.KindOther
}

func (f Filter) match(fi models.FileInfo) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" &&
		!strings.Contains(strings.ToLower(fi.Name), q) {
		return false
	}
	switch f.Type {
	case TypePDF:
		return fi.Kind == models.KindPDF
	case TypeImage:
		return fi.Kind == models.KindImage
	case TypeWord:
		return fi.Kind == models.KindWord
	case TypeExcel:
		return fi.Kind == models.KindExcel
	}
	return true
}

// Apply filters files in place and sorts the result.
func (f Filter) Apply(files []models.FileInfo) []models.FileInfo {
	out := files[:0]
	for _, fi := range files {
		if f.match(fi) {
			out = append(out, fi)
		}
	}
	sortFiles(out, f.Sort)
	return out
}

func sortFiles(files []models.FileInfo, by SortBy) {
	lower := func(i int) string { return strings.ToLower(files[i].Name) }
	switch by {
	case SortType:
		sort.SliceStable(files, func(i, j int) bool {
			ei, ej := strings.ToLower(filepath.Ext(files[i].Name)), strings.ToLower(filepath.Ext(files[j].Name))
			if ei != ej {
				return ei < ej
			}
			return lower(i) < lower(j)
		})
	case SortDate:
		// newest first
		sort.SliceStable(files, func(i, j int) bool {
			if !files[i].ModTime.Equal(files[j].ModTime) {
				return files[i].ModTime.After(files[j].ModTime)
			}
			return lower(i) < lower(j)
		})
	default:
		sort.SliceStable(files, func(i, j int) bool { return lower(i) < lower(j) })
	}
}
