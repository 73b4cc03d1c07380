package ports

import (
	"context"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

type WorkbookIngestor interface {
	Ingest(ctx context.Context, path string) (*domain.Workbook, error)
}

type ChangeNotifier interface {
	Start(ctx context.Context) (<-chan string, <-chan error)
	Stop() error
}
