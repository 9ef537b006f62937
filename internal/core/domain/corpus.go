package domain

import "fmt"

// PageText is one extracted page as handed over by an ingestion source.
type PageText struct {
	DocID   string `json:"doc_id"`
	PageNum int    `json:"page_num"`
	Text    string `json:"text"`
}

// TextChunk is the unit indexed by the text retrievers.
type TextChunk struct {
	ChunkID string `json:"chunk_id"`
	DocID   string `json:"doc_id"`
	PageNum int    `json:"page_num"`
	Text    string `json:"text"`
}

// ImageItem is a figure indexed by its caption only.
type ImageItem struct {
	ItemID  string `json:"item_id"`
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

func PageChunkID(docID string, pageNum int) string {
	return fmt.Sprintf("%s::p%d", docID, pageNum)
}

func SubChunkID(parentID string, n int) string {
	return fmt.Sprintf("%s::sub%d", parentID, n)
}

// ChunkFromPage converts a page into its page-level chunk.
func ChunkFromPage(page PageText) TextChunk {
	return TextChunk{
		ChunkID: PageChunkID(page.DocID, page.PageNum),
		DocID:   page.DocID,
		PageNum: page.PageNum,
		Text:    page.Text,
	}
}
