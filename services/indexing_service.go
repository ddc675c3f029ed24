package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunking parameters: smaller chunks with overlap keep retrieval precise
// while preserving context across chunk boundaries.
const (
	chunkSize    = 800
	chunkOverlap = 150
)

// ReportIndexingService handles storing, chunking, and embedding uploaded
// report files.
type ReportIndexingService struct {
	collection chromago.Collection
	retrieval  RetrievalService
	store      *UploadStore
}

// NewReportIndexingService creates a new indexing service.
func NewReportIndexingService(collection chromago.Collection, retrieval RetrievalService, store *UploadStore) *ReportIndexingService {
	return &ReportIndexingService{
		collection: collection,
		retrieval:  retrieval,
		store:      store,
	}
}

// indexState holds the current hash of a file in the index.
type indexState struct {
	Hash string
}

// IngestUpload stores an uploaded report, extracts its text, and indexes
// the chunks under the uploading user. Returns the number of chunks
// indexed.
func (s *ReportIndexingService) IngestUpload(ctx context.Context, filename string, content []byte, userID string) (int, error) {
	path, err := s.store.Save(filename, content)
	if err != nil {
		return 0, err
	}

	text, err := ExtractTextFromFile(path)
	if err != nil {
		return 0, fmt.Errorf("could not extract text from %s: %w", filename, err)
	}

	// Replace any previously indexed version of this file.
	if err := s.deleteChunksBySource(ctx, filename); err != nil {
		log.Printf("INDEXER WARN: Could not delete old chunks for %s: %v", filename, err)
	}

	hash := sha256.Sum256(content)
	count, err := s.indexText(ctx, text, filename, hex.EncodeToString(hash[:]), userID)
	if err != nil {
		return 0, err
	}

	log.Printf("INDEXER: Indexed upload %s (%d chunks) for user '%s'", filename, count, userID)
	return count, nil
}

// indexText splits text into chunks, embeds each, and adds them to the
// collection with source metadata.
func (s *ReportIndexingService) indexText(ctx context.Context, text, source, hash, userID string) (int, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("failed to split %s into chunks: %w", source, err)
	}
	log.Printf("INDEXER: Split %s into %d chunks.", source, len(chunks))

	for i, chunk := range chunks {
		embeddingVector, err := s.retrieval.EmbedText(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("could not embed chunk %d of %s: %w", i, source, err)
		}
		embedding := embeddings.NewEmbeddingFromFloat32(embeddingVector)

		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source_file", source),
			chromago.NewStringAttribute("file_hash", hash),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		)
		if userID != "" {
			metadata = chromago.NewDocumentMetadata(
				chromago.NewStringAttribute("source_file", source),
				chromago.NewStringAttribute("file_hash", hash),
				chromago.NewIntAttribute("chunk_num", int64(i)),
				chromago.NewStringAttribute("user_id", userID),
			)
		}

		docID := chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), i))
		err = s.collection.Add(ctx,
			chromago.WithIDs(docID),
			chromago.WithTexts(chunk),
			chromago.WithEmbeddings(embedding),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to add chunk %d of %s to chromadb: %w", i, source, err)
		}
	}
	return len(chunks), nil
}

// WatchDirectory starts a long-running process to watch a report drop
// directory and keep the index in sync in real time.
func (s *ReportIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsSupportedReportFile(event.Name) {
					continue
				}

				log.Printf("WATCHER EVENT: %s", event)

				// Editors often write via a temp file and rename, which
				// can fire multiple events. Create and Write are handled
				// the same way.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					hash, err := fileHash(event.Name)
					if err != nil {
						log.Printf("WATCHER WARN: Could not hash file %s: %v", event.Name, err)
						continue
					}
					if err := s.deleteChunksBySource(ctx, event.Name); err != nil {
						log.Printf("WATCHER WARN: Could not delete old chunks for %s: %v", event.Name, err)
					}
					if err := s.processFile(ctx, event.Name, hash); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					if err := s.deleteChunksBySource(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to delete records for %s: %v", event.Name, err)
					}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// ScanAndIndexDirectory syncs the drop directory with the index: new and
// changed files are re-indexed, deleted files are removed.
func (s *ReportIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	indexedFiles, err := s.currentIndexState(ctx)
	if err != nil {
		log.Printf("INDEXER ERROR: Could not get current index state: %v", err)
		return
	}
	log.Printf("INDEXER: Found %d files currently in the index.", len(indexedFiles))

	localFiles := make(map[string]bool)
	err = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsSupportedReportFile(path) {
			return nil
		}
		localFiles[path] = true

		hash, err := fileHash(path)
		if err != nil {
			log.Printf("INDEXER WARN: Could not hash file %s: %v", path, err)
			return nil
		}

		if state, ok := indexedFiles[path]; ok {
			if state.Hash == hash {
				return nil // unchanged
			}
			log.Printf("INDEXER: File has changed: %s. Re-indexing...", path)
			if err := s.deleteChunksBySource(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to delete old version of %s: %v", path, err)
				return nil
			}
		}

		log.Printf("INDEXER: Indexing new/modified file: %s", path)
		if err := s.processFile(ctx, path, hash); err != nil {
			log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}

	for path := range indexedFiles {
		if !localFiles[path] {
			log.Printf("INDEXER: File deleted: %s. Removing from index...", path)
			if err := s.deleteChunksBySource(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to delete records for %s: %v", path, err)
			}
		}
	}
	log.Println("INDEXER: Directory scan finished.")
}

// processFile extracts and indexes one file from the watched directory.
// Watched files are shared, not scoped to a user.
func (s *ReportIndexingService) processFile(ctx context.Context, path, hash string) error {
	text, err := ExtractTextFromFile(path)
	if err != nil {
		return err
	}
	_, err = s.indexText(ctx, text, path, hash, "")
	return err
}

// currentIndexState maps indexed source files to their content hashes.
func (s *ReportIndexingService) currentIndexState(ctx context.Context) (map[string]indexState, error) {
	state := make(map[string]indexState)
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, meta := range results.GetMetadatas() {
		if meta == nil {
			continue
		}
		jsonBytes, err := json.Marshal(meta)
		if err != nil {
			continue
		}
		var metaMap map[string]interface{}
		if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
			continue
		}
		path, ok := metaMap["source_file"].(string)
		if !ok {
			continue
		}
		if hash, ok := metaMap["file_hash"].(string); ok {
			if _, exists := state[path]; !exists {
				state[path] = indexState{Hash: hash}
			}
		}
	}
	return state, nil
}

// deleteChunksBySource removes every chunk that came from one source file.
func (s *ReportIndexingService) deleteChunksBySource(ctx context.Context, source string) error {
	where := chromago.EqString("source_file", source)
	return s.collection.Delete(ctx, chromago.WithWhereDelete(where))
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
