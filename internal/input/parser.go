package input

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nxadm/tail"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"szuro.net/zts/pkg/alert"
)

var (
	linesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_lines_parsed_total",
			Help: "The total number of processed lines",
		},
		[]string{"file"},
	)

	linesInvalid = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_lines_invalid_total",
			Help: "The total number of lines with invalid data",
		},
		[]string{"file"},
	)
)

func parseAlertLine(line *tail.Line) (alert.Alert, error) {
	if line.Err != nil {
		return alert.Alert{}, line.Err
	}
	return alert.Parse([]byte(line.Text))
}

func int64ToBytes(i int64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(i))
	return bytes
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func findLastReadOffset(indexDB *badger.DB, filename string) (location *tail.SeekInfo, err error) {
	location = &tail.SeekInfo{}
	location.Whence = io.SeekStart

	err = indexDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(filename))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return nil
			}
			location.Offset = bytesToInt64(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = nil
	}
	if err != nil {
		location.Offset = 0
	}

	f, statErr := os.Stat(filename)
	if statErr != nil {
		location.Offset = 0
		if err == nil {
			err = statErr
		}
		return
	}
	// offset greater than size means the file was rotated
	if location.Offset > f.Size() {
		location.Offset = 0
	}

	return
}

func saveOffset(indexDB *badger.DB, filename string, offset int64) error {
	return indexDB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(filename), int64ToBytes(offset))
	})
}
