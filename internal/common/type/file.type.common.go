package types

import "mime/multipart"

type UploadFile struct {
	File   multipart.File
	Header *multipart.FileHeader
	Path   string
}

type UploadFilesRes struct {
	OriginalFiles string
	FileName      string
	FileBytes     []byte
	ContentType   string
}
