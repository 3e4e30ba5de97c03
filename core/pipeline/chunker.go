package pipeline

import (
	"sort"
	"strings"

	"github.com/evidra/evidra/model"
)

const (
	// DefaultChunkSize is the approximate token budget per chunk.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the approximate token overlap between
	// consecutive chunks of one region.
	DefaultChunkOverlap = 50

	// charsPerToken approximates tokens as len(text)/4, avoiding an
	// external tokenizer dependency.
	charsPerToken = 4

	// minChunkChars is the noise floor: regions whose text (or rendered
	// extraction) is shorter are dropped, not indexed.
	minChunkChars = 10
)

// breakSequences are searched backward from a window end, in priority order,
// to avoid severing paragraphs, sentences or words.
var breakSequences = []string{"\n\n", "\n", ". ", " "}

// Chunker splits per-region text into token-bounded chunks with overlap,
// preserving provenance metadata. Re-running it on identical input with
// identical configuration yields byte-identical chunk sequences.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// ChunkDocument chunks all regions of a processed document in reading order.
// Table and figure regions prefer their structured extraction, rendered into
// a tagged textual block, over raw OCR text.
func (c *Chunker) ChunkDocument(doc *model.ProcessedDocument) []model.Chunk {
	ordered := make([]model.OrderedRegion, len(doc.OrderedRegions))
	copy(ordered, doc.OrderedRegions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReadingOrder < ordered[j].ReadingOrder
	})

	var chunks []model.Chunk
	for _, region := range ordered {
		text := doc.RegionTexts[region.ID]

		if region.Type == model.RegionTypeTable || region.Type == model.RegionTypeFigure {
			if extraction, ok := doc.Extractions[region.ID]; ok {
				if rendered := extraction.RenderText(); rendered != "" {
					text = rendered
				}
			}
		}

		chunks = append(chunks, c.ChunkRegion(region, text, doc.Filename)...)
	}

	return chunks
}

// ChunkRegion splits one region's text into chunks. Text under the noise
// floor yields no chunks.
func (c *Chunker) ChunkRegion(region model.OrderedRegion, text, paperName string) []model.Chunk {
	if len(strings.TrimSpace(text)) < minChunkChars {
		return nil
	}

	var chunks []model.Chunk
	for chunkIndex, chunkText := range c.splitText(text) {
		chunks = append(chunks, model.Chunk{
			ChunkID:      model.ChunkID(paperName, region.ID, chunkIndex),
			Text:         chunkText,
			PaperName:    paperName,
			PageNum:      region.PageNum,
			RegionID:     region.ID,
			RegionType:   region.Type,
			BBox:         region.BBox,
			ReadingOrder: region.ReadingOrder,
			ChunkIndex:   chunkIndex,
		})
	}

	return chunks
}

// splitText carves the text into windows of ChunkSize*4 characters, cutting
// at the nearest natural break and overlapping consecutive windows by
// ChunkOverlap*4 characters.
func (c *Chunker) splitText(text string) []string {
	if len(text)/charsPerToken <= c.ChunkSize {
		return []string{text}
	}

	windowChars := c.ChunkSize * charsPerToken
	overlapChars := c.ChunkOverlap * charsPerToken

	var parts []string
	start := 0

	for start < len(text) {
		end := start + windowChars

		if end < len(text) {
			end = c.findBreak(text, start, end)
		} else {
			end = len(text)
		}

		if part := strings.TrimSpace(text[start:end]); part != "" {
			parts = append(parts, part)
		}

		next := end
		if end < len(text) {
			next = end - overlapChars
		}

		// Guards against non-termination when no breakable character
		// exists and the overlap reaches back past the window start.
		if next <= start {
			break
		}
		start = next
	}

	return parts
}

// findBreak searches backward from end for the highest-priority break
// sequence within the window, returning the cut position just after it.
// Without any break the raw character boundary stands.
func (c *Chunker) findBreak(text string, start, end int) int {
	window := text[start:end]
	for _, breakSeq := range breakSequences {
		if pos := strings.LastIndex(window, breakSeq); pos != -1 {
			return start + pos + len(breakSeq)
		}
	}
	return end
}
