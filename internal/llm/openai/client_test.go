package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/llm"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test", BaseURL: srv.URL, Model: "m", VisionModel: "vm"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStructure(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, chatResponse("```json\n{\"name\":\"Soup\",\"servings\":2,\"ingredients\":[{\"raw_name\":\"1 cup stock\",\"quantity\":1,\"uom\":\"cup\"}]}\n```"))
	})

	d, raw, err := c.Structure(context.Background(), llm.StructureRequest{Text: "Soup recipe", SourceFilename: "soup.pdf"})
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if d.Name != "Soup" || d.Servings != 2 || d.YieldOz != 16 || len(d.Ingredients) != 1 {
		t.Fatalf("draft = %+v", d)
	}
	if !strings.Contains(string(raw), "Soup") {
		t.Fatalf("raw = %s", raw)
	}
	if got["model"] != "m" {
		t.Errorf("model = %v", got["model"])
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v", got["response_format"])
	}
	msgs, _ := got["messages"].([]any)
	user, _ := msgs[1].(map[string]any)
	if !strings.Contains(user["content"].(string), "Source file: soup.pdf") {
		t.Errorf("user prompt = %v", user["content"])
	}
}

func TestStructure_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chatResponse("I could not find a recipe."))
	})
	_, raw, err := c.Structure(context.Background(), llm.StructureRequest{Text: "x"})
	if !errors.Is(err, common.ErrStructuring) {
		t.Fatalf("err = %v, want structuring error", err)
	}
	if string(raw) != "I could not find a recipe." {
		t.Fatalf("raw = %q", raw)
	}
}

func TestStructure_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, _, err := c.Structure(context.Background(), llm.StructureRequest{Text: "x"})
	var se *common.HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
}

func TestReadImage(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Content []map[string]any `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, chatResponse("  Pancakes\n1 cup flour  "))
	})

	text, err := c.ReadImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "This is page 2 of a recipe document.")
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if text != "Pancakes\n1 cup flour" {
		t.Fatalf("text = %q", text)
	}
	if got.Model != "vm" || len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("request = %+v", got)
	}
	prompt, _ := got.Messages[0].Content[0]["text"].(string)
	if !strings.HasPrefix(prompt, "This is page 2 of a recipe document.") {
		t.Errorf("prompt = %q", prompt)
	}
	img, _ := got.Messages[0].Content[1]["image_url"].(map[string]any)
	if url, _ := img["url"].(string); !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("image url = %v", img["url"])
	}
}
