// Command viewer draws the frames a worldgen server streams as an
// equirectangular map.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"runtime"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gorilla/websocket"

	"tectonics/core"
	"tectonics/crust"
	"tectonics/rendering"
	"tectonics/simulation"
	"tectonics/transport/ws"
)

type latestFrame struct {
	mu    sync.Mutex
	frame *simulation.Frame
	fresh bool
}

func (l *latestFrame) set(f simulation.Frame) {
	l.mu.Lock()
	l.frame = &f
	l.fresh = true
	l.mu.Unlock()
}

// take returns the newest frame if it has not been taken yet
func (l *latestFrame) take() (simulation.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.fresh {
		return simulation.Frame{}, false
	}
	l.fresh = false
	return *l.frame, true
}

func main() {
	runtime.LockOSThread()

	var (
		addr     = flag.String("addr", "ws://localhost:8080/ws", "worldgen websocket address")
		width    = flag.Int("width", 1280, "Window width")
		height   = flag.Int("height", 640, "Window height")
		scale    = flag.Int("scale", 4, "Screen pixels per map pixel")
		sealevel = flag.Float64("sealevel", 0, "Sealevel in meters for the height view")
	)
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	var mesh ws.MeshData
	if err := conn.ReadJSON(&mesh); err != nil {
		log.Fatalf("Failed to read mesh: %v", err)
	}
	positions := make([]core.Vector3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = core.Vector3{X: v[0], Y: v[1], Z: v[2]}
	}
	grid := core.NewGridFromNeighbors(positions, mesh.Neighbors)
	fmt.Printf("Connected to %s: %d vertices\n", *addr, grid.VertexCount())

	mapWidth, mapHeight := *width / *scale, *height / *scale
	raster := rendering.NewEquirect(grid, mapWidth, mapHeight)

	latest := &latestFrame{}
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Connection closed: %v", err)
				return
			}
			var msg ws.FrameData
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "frame" {
				continue
			}
			latest.set(msg.Frame)
		}
	}()

	rl.InitWindow(int32(*width), int32(*height), "Tectonics")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	mode := rendering.ModePlates
	var frame simulation.Frame
	var pixels []rl.Color
	paused := false

	fmt.Println("\nControls:")
	fmt.Println("  1-2: Plates / Height")
	fmt.Println("  Space: Pause")
	fmt.Println("  ESC: Exit")

	for !rl.WindowShouldClose() {
		switch {
		case rl.IsKeyPressed(rl.KeyOne):
			mode = rendering.ModePlates
		case rl.IsKeyPressed(rl.KeyTwo):
			mode = rendering.ModeHeight
		case rl.IsKeyPressed(rl.KeySpace):
			paused = !paused
			if err := conn.WriteJSON(ws.Control{Paused: &paused}); err != nil {
				log.Printf("Failed to send pause: %v", err)
			}
		}

		if f, ok := latest.take(); ok {
			frame = f
		}
		pixels = raster.Render(frame, mode, *sealevel, pixels)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		for y := 0; y < mapHeight; y++ {
			for x := 0; x < mapWidth; x++ {
				rl.DrawRectangle(int32(x**scale), int32(y**scale), int32(*scale), int32(*scale), pixels[y*mapWidth+x])
			}
		}
		rl.DrawText(fmt.Sprintf("%.1f My  %d plates  %s", frame.Time/crust.MegaYear, frame.Plates, mode), 10, 10, 20, rl.RayWhite)
		rl.EndDrawing()
	}
}
