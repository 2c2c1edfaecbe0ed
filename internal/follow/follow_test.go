package follow

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type result struct {
	data []byte
	err  error
}

func readAllAsync(r io.Reader) <-chan result {
	ch := make(chan result, 1)
	go func() {
		b, err := io.ReadAll(r)
		ch <- result{b, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not finish")
		return result{}
	}
}

func writeFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Error(err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Error(err)
	}
}

func TestReader_FollowsAppends(t *testing.T) {
	path := writeFile(t, "abc")
	r, err := Open(context.Background(), path, 300*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ch := readAllAsync(r)
	time.Sleep(50 * time.Millisecond)
	appendFile(t, path, "def")

	res := await(t, ch)
	if res.err != nil {
		t.Fatalf("ReadAll: %v", res.err)
	}
	if string(res.data) != "abcdef" {
		t.Errorf("data = %q, want abcdef", res.data)
	}
}

func TestReader_StopsWhenRemoved(t *testing.T) {
	path := writeFile(t, "xyz")
	r, err := Open(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ch := readAllAsync(r)
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	res := await(t, ch)
	if res.err != nil || string(res.data) != "xyz" {
		t.Errorf("ReadAll = %q, %v; want xyz, nil", res.data, res.err)
	}
}

func TestReader_StopsWhenRenamed(t *testing.T) {
	path := writeFile(t, "123")
	r, err := Open(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ch := readAllAsync(r)
	time.Sleep(50 * time.Millisecond)
	if err := os.Rename(path, path+".done"); err != nil {
		t.Fatal(err)
	}

	if res := await(t, ch); res.err != nil || string(res.data) != "123" {
		t.Errorf("ReadAll = %q, %v; want 123, nil", res.data, res.err)
	}
}

func TestReader_IdleTimeout(t *testing.T) {
	path := writeFile(t, "")
	r, err := Open(context.Background(), path, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	start := time.Now()
	n, err := r.Read(make([]byte, 8))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("Read = %d, %v; want 0, EOF", n, err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the idle timeout", elapsed)
	}
}

func TestReader_Cancel(t *testing.T) {
	path := writeFile(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	r, err := Open(ctx, path, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	time.AfterFunc(30*time.Millisecond, cancel)
	if _, err := r.Read(make([]byte, 8)); !errors.Is(err, context.Canceled) {
		t.Errorf("Read error = %v, want context.Canceled", err)
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "none"), 0, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open error = %v, want not exist", err)
	}
}
