// Package filestore keeps company uploads and project folders on local disk.
//
//	uploads/<file>
//	projects/<project>/{files,receipts,images}/<file>
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tms-portal/internal/fsx"
	"tms-portal/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrExists          = errors.New("already exists")
	ErrInvalidName     = errors.New("invalid name")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrUnknownFolder   = errors.New("unknown project folder")
)

// Allowed upload extensions per folder.
var (
	uploadExts = []string{".pdf", ".jpg", ".jpeg", ".png", ".docx", ".xlsx"}

	folderExts = map[string][]string{
		models.FolderFiles:    {".pdf", ".docx", ".xlsx"},
		models.FolderReceipts: {".pdf", ".jpg", ".jpeg", ".png"},
		models.FolderImages:   {".jpg", ".jpeg", ".png"},
	}
)

const filePerm = 0o644

type Store struct {
	uploadDir   string
	projectsDir string
}

// New creates both root directories if needed.
func New(uploadDir, projectsDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, projectsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	return &Store{uploadDir: uploadDir, projectsDir: projectsDir}, nil
}

//
// COMPANY UPLOADS
//

func (s *Store) ListUploads(f Filter) ([]models.FileInfo, error) {
	files, err := listDir(s.uploadDir)
	if err != nil {
		return nil, err
	}
	return f.Apply(files), nil
}

func (s *Store) SaveUpload(name string, r io.Reader) (models.FileInfo, error) {
	if err := checkName(name); err != nil {
		return models.FileInfo{}, err
	}
	if !allowed(name, uploadExts) {
		return models.FileInfo{}, ErrUnsupportedType
	}
	return save(filepath.Join(s.uploadDir, name), r)
}

// UploadPath returns the on-disk path of an existing upload.
func (s *Store) UploadPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return existingFile(filepath.Join(s.uploadDir, name))
}

func (s *Store) DeleteUpload(name string) error {
	path, err := s.UploadPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

//
// PROJECTS
//

// ListProjects returns projects whose name contains search
// (case-insensitive), sorted by name.
func (s *Store) ListProjects(search string) ([]models.Project, error) {
	entries, err := os.ReadDir(s.projectsDir)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	var out []models.Project
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name()), search) {
			continue
		}
		p, err := s.Project(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Project lists the files of one project. Missing subfolders are created,
// so projects copied in by hand get the standard layout.
func (s *Store) Project(name string) (models.Project, error) {
	dir, err := s.projectDir(name)
	if err != nil {
		return models.Project{}, err
	}

	p := models.Project{Name: name, Folders: map[string][]models.FileInfo{}}
	for _, folder := range models.ProjectFolders {
		fdir := filepath.Join(dir, folder)
		if err := os.MkdirAll(fdir, 0o755); err != nil {
			return models.Project{}, err
		}
		files, err := listDir(fdir)
		if err != nil {
			return models.Project{}, err
		}
		for i := range files {
			files[i].Project, files[i].Folder = name, folder
		}
		sortFiles(files, SortName)
		p.Folders[folder] = files
	}
	return p, nil
}

func (s *Store) CreateProject(name string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if err := checkName(name); err != nil {
		return models.Project{}, err
	}

	dir := filepath.Join(s.projectsDir, name)
	ok, err := fsx.Exists(dir)
	if err != nil {
		return models.Project{}, err
	}
	if ok {
		return models.Project{}, ErrExists
	}

	for _, folder := range models.ProjectFolders {
		if err := os.MkdirAll(filepath.Join(dir, folder), 0o755); err != nil {
			return models.Project{}, err
		}
	}
	return s.Project(name)
}

func (s *Store) DeleteProject(name string) error {
	dir, err := s.projectDir(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (s *Store) SaveProjectFile(project, folder, name string, r io.Reader) (models.FileInfo, error) {
	dir, err := s.folderDir(project, folder)
	if err != nil {
		return models.FileInfo{}, err
	}
	if err := checkName(name); err != nil {
		return models.FileInfo{}, err
	}
	if !allowed(name, folderExts[folder]) {
		return models.FileInfo{}, ErrUnsupportedType
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.FileInfo{}, err
	}
	fi, err := save(filepath.Join(dir, name), r)
	if err != nil {
		return models.FileInfo{}, err
	}
	fi.Project, fi.Folder = project, folder
	return fi, nil
}

func (s *Store) ProjectFilePath(project, folder, name string) (string, error) {
	dir, err := s.folderDir(project, folder)
	if err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	return existingFile(filepath.Join(dir, name))
}

func (s *Store) DeleteProjectFile(project, folder, name string) error {
	path, err := s.ProjectFilePath(project, folder, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *Store) projectDir(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	dir := filepath.Join(s.projectsDir, name)
	st, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return "", ErrNotFound
	}
	return dir, nil
}

func (s *Store) folderDir(project, folder string) (string, error) {
	if _, ok := folderExts[folder]; !ok {
		return "", ErrUnknownFolder
	}
	dir, err := s.projectDir(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, folder), nil
}

//
// helpers
//

// checkName rejects anything that is not a plain file name, so callers can
// never escape the store's directories.
func checkName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return ErrInvalidName
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return ErrInvalidName
	case hidden(name):
		return ErrInvalidName
	case name != strings.TrimSpace(name):
		return ErrInvalidName
	}
	return nil
}

func hidden(name string) bool { return strings.HasPrefix(name, ".") }

func allowed(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func existingFile(path string) (string, error) {
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

func save(path string, r io.Reader) (models.FileInfo, error) {
	if err := fsx.WriteReaderAtomic(path, r, filePerm); err != nil {
		return models.FileInfo{}, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return models.FileInfo{}, err
	}
	return fileInfo(st), nil
}

func listDir(dir string) ([]models.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]models.FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || hidden(e.Name()) {
			continue
		}
		st, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		files = append(files, fileInfo(st))
	}
	return files, nil
}

func fileInfo(st os.FileInfo) models.FileInfo {
	return models.FileInfo{
		Name:    st.Name(),
		Size:    st.Size(),
		ModTime: st.ModTime(),
		Kind:    KindOf(st.Name()),
	}
}
