package models

import "time"

type FileKind string

const (
	KindPDF   FileKind = "pdf"
	KindImage FileKind = "image"
	KindWord  FileKind = "word"
	KindExcel FileKind = "excel"
	KindText  FileKind = "text"
	KindOther FileKind = "other"
)

// Подпапки, которые создаются в каждом проекте
const (
	FolderFiles    = "files"
	FolderReceipts = "receipts"
	FolderImages   = "images"
)

var ProjectFolders = []string{FolderFiles, FolderReceipts, FolderImages}

type FileInfo struct {
	Name    string    `json:"name"`
	Project string    `json:"project,omitempty"`
	Folder  string    `json:"folder,omitempty"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Kind    FileKind  `json:"kind"`
}

type Project struct {
	Name    string                `json:"name"`
	Folders map[string][]FileInfo `json:"folders,omitempty"`
}
