package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"sync/atomic"
)

// Local stand-in for the remote scoring endpoint. It accepts the
// columns/data body shape and answers like a deployed classifier. With
// -fail-shapes n it rejects the first n bodies of each kind it has not seen
// before, which exercises the orchestrator's shape negotiation.

type columnsBody struct {
	InputData struct {
		Columns []string `json:"columns"`
		Data    [][]any  `json:"data"`
	} `json:"input_data"`
}

func scoreRow(columns []string, row []any) (string, float64) {
	byName := map[string]any{}
	for i, c := range columns {
		if i < len(row) {
			byName[c] = row[i]
		}
	}
	num := func(k string) float64 {
		if v, ok := byName[k].(float64); ok {
			return v
		}
		return 0
	}

	score := 0.5 + (num("SeatComfort")-3)*0.08 + (num("Cleanliness")-3)*0.06
	delay := (num("DepDelay") + num("ArrDelay")) / 60
	if delay > 4 {
		delay = 4
	}
	score += (4 - delay) * 0.05
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	if score >= 0.5 {
		return "Satisfied", score
	}
	return "Dissatisfied", 1 - score
}

func main() {
	port := flag.String("port", "9100", "port to listen on")
	failShapes := flag.Int("fail-shapes", 0, "reject this many requests before accepting one")
	flag.Parse()

	var rejected atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		if n := rejected.Add(1); int(n) <= *failShapes {
			log.Printf("[MOCK SCORING] rejecting request %d/%d", n, *failShapes)
			http.Error(w, `{"error":"unexpected input format"}`, http.StatusBadRequest)
			return
		}

		var body columnsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.InputData.Data) == 0 {
			http.Error(w, `{"error":"expected columns/data input"}`, http.StatusBadRequest)
			return
		}

		label, proba := scoreRow(body.InputData.Columns, body.InputData.Data[0])
		resp := map[string]any{
			"predictions": []map[string]any{
				{
					"label": label,
					"probabilities": map[string]float64{
						label: proba,
					},
				},
			},
		}
		w.Header().Set("x-ms-request-id", "mock-scoring-1")
		json.NewEncoder(w).Encode(resp)
	})

	log.Printf("[MOCK SCORING] listening on :%s", *port)
	http.ListenAndServe(":"+*port, mux)
}
