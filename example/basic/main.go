package main

import (
	"context"
	"fmt"
	"log"

	"github.com/evidra/evidra"
	"github.com/evidra/evidra/core/pipeline"
	"github.com/evidra/evidra/model"
)

// sampleDocument mimics the output of an upstream layout analysis run on a
// short two-column paper: detected regions plus the text extracted per region.
func sampleDocument() *model.ProcessedDocument {
	return &model.ProcessedDocument{
		Filename: "attention_survey.pdf",
		NumPages: 1,
		Regions: []model.Region{
			{ID: "page0_region_0", Type: model.RegionTypeTitle, BBox: model.BBox{60, 40, 540, 80}, PageNum: 0},
			{ID: "page0_region_1", Type: model.RegionTypeText, BBox: model.BBox{50, 100, 290, 400}, PageNum: 0},
			{ID: "page0_region_2", Type: model.RegionTypeText, BBox: model.BBox{310, 100, 550, 400}, PageNum: 0},
			{ID: "page0_region_3", Type: model.RegionTypeTable, BBox: model.BBox{50, 420, 550, 600}, PageNum: 0},
		},
		RegionTexts: map[string]string{
			"page0_region_0": "A Survey of Attention Mechanisms in Neural Networks",
			"page0_region_1": "Attention mechanisms let models weigh parts of the input differently. " +
				"Since their introduction in neural machine translation they have become " +
				"the core building block of transformer architectures.",
			"page0_region_2": "Self-attention computes pairwise interactions between all tokens, " +
				"which scales quadratically with sequence length. A long line of work " +
				"studies sparse and linear approximations to reduce this cost.",
			"page0_region_3": "low quality OCR text of the results table",
		},
		Extractions: map[string]model.Extraction{
			"page0_region_3": {
				RegionID: "page0_region_3",
				PageNum:  0,
				Type:     model.ExtractionTypeTable,
				Table: &model.TableData{
					Headers: []string{"Variant", "Complexity", "BLEU"},
					Rows: [][]string{
						{"Full attention", "O(n^2)", "27.3"},
						{"Sparse attention", "O(n sqrt(n))", "26.9"},
						{"Linear attention", "O(n)", "26.1"},
					},
					Summary: "Accuracy and complexity of attention variants",
				},
			},
		},
	}
}

func main() {
	ctx := context.Background()

	// Local sentence-transformer embeddings, no external services needed.
	embed, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	// In-memory index, retrieval only (no generation capability).
	app, err := evidra.New(nil, embed, nil)
	if err != nil {
		log.Fatalf("Failed to create evidra: %v", err)
	}
	defer app.Close()

	app.RegisterPaper("attention_survey.pdf", model.PaperMeta{
		Title: "A Survey of Attention Mechanisms",
		Topic: "Deep Learning",
	})

	fmt.Println("Indexing document...")
	numChunks, err := app.IndexDocument(ctx, sampleDocument())
	if err != nil {
		log.Fatalf("Failed to index document: %v", err)
	}
	fmt.Printf("Indexed %d chunks\n", numChunks)

	query := "How does the cost of self-attention scale?"
	fmt.Printf("\nQuerying: %s\n", query)

	result, err := app.Retrieve(ctx, query, model.RetrieveOptions{TopK: 3, DiversityLambda: 0.5})
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("\nFound %d evidence chunks:\n", result.TotalChunks)
	for i, evidence := range result.EvidenceChunks {
		fmt.Printf("\n--- Evidence %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", evidence.Score)
		fmt.Printf("Source: %s\n", evidence.Citation())
		fmt.Printf("Region type: %s\n", evidence.RegionType)
		fmt.Printf("Content: %s\n", evidence.Text)
	}

	stats, err := app.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("\nIndex holds %d chunks across %d papers\n", stats.TotalChunks, len(stats.PaperCounts))
}
