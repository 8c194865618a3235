package usecase_test

import (
	"context"
	"sync"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/export"
	slackapi "github.com/slack-go/slack"
)

func riskFile(id, title, dpC string) *model.RiskFile {
	f := &model.RiskFile{
		ID:       types.RiskFileID(id),
		Title:    title,
		RiskType: types.RiskTypeStandard,
	}
	f.DirectProbability[types.ScenarioConsiderable] = dpC
	return f
}

func cascadeOf(cause, effect, c2c string) *model.Cascade {
	c := &model.Cascade{
		ID:       types.CascadeID(cause + "-" + effect),
		CauseID:  types.RiskFileID(cause),
		EffectID: types.RiskFileID(effect),
		Analyses: []model.CascadeAnalysis{{Expert: "expert@example.com"}},
	}
	c.Analyses[0].Matrix[types.ScenarioConsiderable][types.ScenarioConsiderable] = c2c
	return c
}

// sampleSnapshot is a small catalogue: storm causes flood and outage, flood
// causes outage
func sampleSnapshot() *model.Snapshot {
	storm := riskFile("storm", "Storm", "0.2")
	storm.DirectImpact[types.ScenarioConsiderable][types.IndicatorFa] = "100"
	flood := riskFile("flood", "Flood", "0.1")
	flood.DirectImpact[types.ScenarioConsiderable][types.IndicatorHa] = "50"
	outage := riskFile("outage", "Power outage", "0.05")
	outage.DirectImpact[types.ScenarioConsiderable][types.IndicatorSa] = "n/a"

	return &model.Snapshot{
		RiskFiles: []*model.RiskFile{flood, outage, storm},
		Cascades: []*model.Cascade{
			cascadeOf("flood", "outage", "0.5"),
			cascadeOf("storm", "flood", "0.5"),
			cascadeOf("storm", "outage", "0.1"),
		},
	}
}

type slackMock struct {
	mu       sync.Mutex
	channels []string
	texts    []string
	err      error
}

func (x *slackMock) PostMessage(ctx context.Context, channelID string, blocks []slackapi.Block, text string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return "", x.err
	}
	x.channels = append(x.channels, channelID)
	x.texts = append(x.texts, text)
	return "1700000000.000100", nil
}

type exporterMock struct {
	reports []*export.Report
	err     error
}

func (x *exporterMock) Export(ctx context.Context, report *export.Report) (string, error) {
	if x.err != nil {
		return "", x.err
	}
	x.reports = append(x.reports, report)
	return "gs://bucket/runs/" + string(report.Run.ID) + ".json", nil
}

// blockingExporter holds a run inside Export until released
type blockingExporter struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingExporter() *blockingExporter {
	return &blockingExporter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (x *blockingExporter) Export(ctx context.Context, report *export.Report) (string, error) {
	x.entered <- struct{}{}
	<-x.release
	return "", nil
}
