package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tectonics/crust"
	"tectonics/processes"
	"tectonics/simulation"
)

//go:embed settings.schema.json
var schemaJSON string

type Settings struct {
	Grid        GridSettings        `yaml:"grid"`
	World       WorldSettings       `yaml:"world"`
	Simulation  SimulationSettings  `yaml:"simulation"`
	Server      ServerSettings      `yaml:"server"`
	Persistence PersistenceSettings `yaml:"persistence"`
}

type GridSettings struct {
	IcosphereLevel int `yaml:"icosphere_level"`
}

type WorldSettings struct {
	Sealevel          float64                      `yaml:"sealevel"`
	SurfaceGravity    float64                      `yaml:"surface_gravity"`
	MaterialDensity   crust.MaterialDensity        `yaml:"material_density"`
	MaterialViscosity simulation.MaterialViscosity `yaml:"material_viscosity"`
}

type SimulationSettings struct {
	PlateCount                int     `yaml:"plate_count"`
	Seed                      int64   `yaml:"seed"`
	TimestepMy                float64 `yaml:"timestep_my"`
	SupercontinentCycleMeanMy float64 `yaml:"supercontinent_cycle_mean_my"`
	PerceivableFrames         float64 `yaml:"perceivable_frames"`
	RainfallMetersPerYear     float64 `yaml:"rainfall_m_per_year"`
	WeatheringFactor          float64 `yaml:"weathering_factor"`
	ErosionFactor             float64 `yaml:"erosion_factor"`
	CriticalSedimentThickness float64 `yaml:"critical_sediment_thickness"`
	RiftingMaficMass          float64 `yaml:"rifting_mafic_mass"`
	IsostaticDatum            float64 `yaml:"isostatic_datum"`
	DrivingStress             float64 `yaml:"driving_stress"`
}

type ServerSettings struct {
	Port             int `yaml:"port"`
	UpdateIntervalMs int `yaml:"update_interval_ms"`
}

type PersistenceSettings struct {
	SnapshotDir        string `yaml:"snapshot_dir"`
	IndexDB            string `yaml:"index_db"`
	SnapshotEverySteps int    `yaml:"snapshot_every_steps"`
}

// Default returns the settings used when no file is present
func Default() Settings {
	opts := simulation.DefaultOptions()
	return Settings{
		Grid: GridSettings{
			IcosphereLevel: 5,
		},
		World: WorldSettings{
			Sealevel:          0,
			SurfaceGravity:    9.8,
			MaterialDensity:   crust.EarthMaterialDensity(),
			MaterialViscosity: simulation.MaterialViscosity{Mantle: 1e21},
		},
		Simulation: SimulationSettings{
			PlateCount:                opts.PlateCount,
			Seed:                      opts.Seed,
			TimestepMy:                1,
			SupercontinentCycleMeanMy: opts.SupercontinentCycleMean / crust.MegaYear,
			PerceivableFrames:         opts.PerceivableFrames,
			RainfallMetersPerYear:     opts.Rates.Rainfall * crust.Year,
			WeatheringFactor:          opts.Rates.WeatheringFactor,
			ErosionFactor:             opts.Rates.ErosionFactor,
			CriticalSedimentThickness: opts.Rates.CriticalSedimentThickness,
			RiftingMaficMass:          opts.RiftingCrust.MaficVolcanic,
			IsostaticDatum:            opts.IsostaticDatum,
			DrivingStress:             opts.DrivingStress,
		},
		Server: ServerSettings{
			Port:             8080,
			UpdateIntervalMs: 100,
		},
		Persistence: PersistenceSettings{
			SnapshotDir:        "data/snapshots",
			IndexDB:            "data/index.sqlite",
			SnapshotEverySteps: 50,
		},
	}
}

// Load reads settings from a YAML file on top of the defaults. A missing
// file is not an error.
func Load(path string) (Settings, error) {
	settings := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("No %s found, using defaults\n", path)
			return settings, nil
		}
		return settings, err
	}

	if err := Validate(raw); err != nil {
		return settings, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("Loaded settings: icosphere level %d (~%d vertices), %d plates\n",
		settings.Grid.IcosphereLevel,
		VertexCount(settings.Grid.IcosphereLevel),
		settings.Simulation.PlateCount)
	return settings, nil
}

// Validate checks a YAML settings document against the settings schema
func Validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if doc == nil {
		return nil
	}

	// the validator works on encoding/json values, so round-trip through JSON
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("settings must be a mapping with string keys: %w", err)
	}
	var value any
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return err
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	return schema.Validate(value)
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("settings.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}
	return c.Compile("settings.schema.json")
}

// VertexCount is the number of vertices of an icosphere subdivided level times
func VertexCount(level int) int {
	// Icosphere vertex count formula: 10 * 4^level + 2
	count := 10
	for i := 0; i < level; i++ {
		count *= 4
	}
	return count + 2
}

// Dependencies returns the world settings in the form the lithosphere takes
func (s Settings) Dependencies() simulation.Dependencies {
	sealevel := s.World.Sealevel
	gravity := s.World.SurfaceGravity
	density := s.World.MaterialDensity
	viscosity := s.World.MaterialViscosity
	return simulation.Dependencies{
		Sealevel:          &sealevel,
		SurfaceGravity:    &gravity,
		MaterialDensity:   &density,
		MaterialViscosity: &viscosity,
	}
}

// Options returns the simulation settings in the form the lithosphere takes
func (s Settings) Options() simulation.Options {
	sim := s.Simulation
	return simulation.Options{
		PlateCount:              sim.PlateCount,
		Seed:                    sim.Seed,
		SupercontinentCycleMean: sim.SupercontinentCycleMeanMy * crust.MegaYear,
		PerceivableFrames:       sim.PerceivableFrames,
		Rates: processes.Rates{
			Rainfall:                  sim.RainfallMetersPerYear / crust.Year,
			WeatheringFactor:          sim.WeatheringFactor,
			ErosionFactor:             sim.ErosionFactor,
			CriticalSedimentThickness: sim.CriticalSedimentThickness,
		},
		RiftingCrust:   crust.RockColumn{MaficVolcanic: sim.RiftingMaficMass},
		IsostaticDatum: sim.IsostaticDatum,
		DrivingStress:  sim.DrivingStress,
	}
}

// Timestep returns the step length in seconds
func (s Settings) Timestep() float64 {
	return s.Simulation.TimestepMy * crust.MegaYear
}
