package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/smazurov/sdinode/internal/logging"
	"github.com/smazurov/sdinode/pkg/sdirx"
	"github.com/smazurov/sdinode/pkg/vidc"
	"github.com/spf13/cobra"
)

// DecodeInput holds raw register values to replay through the lock path.
type DecodeInput struct {
	ModeDet    uint32
	TSDet      uint32
	TData      uint32
	PayloadID  uint32
	PayloadSet bool
}

// DecodeReport is the outcome of replaying one lock interrupt.
type DecodeReport struct {
	Locked     bool              `json:"locked"`
	Lock       sdirx.LockStatus  `json:"lock"`
	Transport  sdirx.Transport   `json:"transport"`
	Video      sdirx.VideoStream `json:"video"`
	Format     string            `json:"format"`
	PayloadID  uint32            `json:"payload_id"`
	RegWrites  int               `json:"register_writes"`
	StreamUpCB bool              `json:"stream_up_callback"`
}

// Decode raises a lock interrupt on an in-memory register file holding in
// and reports what the receiver made of it.
func Decode(in DecodeInput) (DecodeReport, error) {
	regs := sdirx.NewMemRegisters()
	regs.Set(sdirx.RegModeDetSts, in.ModeDet)
	regs.Set(sdirx.RegTSDetSts, in.TSDet)
	regs.Set(sdirx.RegSbRxTData, in.TData)
	if in.PayloadSet {
		regs.Set(sdirx.RegST352Valid, 0x1)
		regs.Set(sdirx.RegST352DS0, in.PayloadID)
	}
	regs.Set(sdirx.RegIntStatus, uint32(sdirx.IntrVideoLock))

	var report DecodeReport
	regs.OnWrite(func(_, _ uint32) { report.RegWrites++ })

	rx := sdirx.New(regs,
		sdirx.WithLogger(logging.GetLogger("decode")),
		sdirx.WithLockRejectedHook(func(r sdirx.LockRejection) { report.Lock = r.Status }))

	err := rx.SetCallback(sdirx.HandlerStreamUp, func(ref any) {
		ref.(*DecodeReport).StreamUpCB = true
	}, &report)
	if err != nil {
		return DecodeReport{}, err
	}

	rx.HandleInterrupt()

	report.Locked = report.StreamUpCB
	if report.Locked {
		report.Lock = sdirx.LockStatus{ModeLocked: true, TimingLocked: true}
	}
	report.Transport = rx.Transport()
	stream, _ := rx.Stream(0)
	report.Video = stream.Video
	report.Format = stream.Video.FormatID.String()
	report.PayloadID = stream.PayloadID
	return report, nil
}

// WriteDecodeReport renders report for a terminal.
func WriteDecodeReport(w io.Writer, r DecodeReport) error {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("SDI receiver lock") + "\n")

	if !r.Locked {
		sb.WriteString(field("lock", badStyle.Render(fmt.Sprintf("rejected (mode locked=%t, timing locked=%t)",
			r.Lock.ModeLocked, r.Lock.TimingLocked))))
		_, err := io.WriteString(w, sb.String())
		return err
	}

	t := r.Transport
	level := "A"
	if t.IsLevelB3G {
		level = "B"
	}
	scan := "interlaced"
	if t.Progressive() {
		scan = "progressive"
	}

	sb.WriteString(field("lock", goodStyle.Render("locked")))
	sb.WriteString(field("mode", t.Mode.String()))
	if t.Mode == sdirx.Mode3G {
		sb.WriteString(field("3G level", level))
	}
	sb.WriteString(field("streams", fmt.Sprintf("%d", t.ActiveStreams.Count())))
	sb.WriteString(field("transport scan", scan))
	sb.WriteString(field("family", t.Family.String()))
	sb.WriteString(field("rate code", fmt.Sprintf("%s fractional=%t", t.Rate, t.IsFractional)))
	sb.WriteString(field("payload id", fmt.Sprintf("0x%08x", r.PayloadID)))
	sb.WriteString("\n")

	formatName := goodStyle.Render(r.Format)
	if r.Video.FormatID == vidc.FormatUnsupported {
		formatName = badStyle.Render(r.Format)
	}
	sb.WriteString(titleStyle.Render("Video stream 0") + "\n")
	sb.WriteString(field("format", formatName))
	sb.WriteString(field("interlaced", fmt.Sprintf("%t", r.Video.IsInterlaced)))
	sb.WriteString(field("color", fmt.Sprintf("%s %d bpc, %d ppc", r.Video.ColorFormat, r.Video.ColorDepth, r.Video.PixPerClk)))
	if tm := r.Video.Timing; tm.HTotal > 0 {
		sb.WriteString(field("h timing", fmt.Sprintf("%d active / %d total", tm.HActive, tm.HTotal)))
		sb.WriteString(field("v timing", fmt.Sprintf("%d active / %d lines per frame", tm.VActive, tm.LinesPerFrame())))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// CreateDecodeCmd creates the decode command.
func CreateDecodeCmd() *cobra.Command {
	var in DecodeInput
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw receiver status registers",
		Long: `Replays a video lock interrupt against an in-memory register file holding the given ` +
			`MODE_DET_STS, TS_DET_STS and RX_TDATA values, and prints the detected transport and video format.`,
		Example: `  sdinode decode --mode 0x8 --ts 0xb01
  sdinode decode --mode 0x9a --ts 0x501 --payload 0x89ca0b01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.PayloadSet = cmd.Flags().Changed("payload")
			report, err := Decode(in)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return WriteDecodeReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().Uint32Var(&in.ModeDet, "mode", 0, "MODE_DET_STS register value")
	cmd.Flags().Uint32Var(&in.TSDet, "ts", 0, "TS_DET_STS register value")
	cmd.Flags().Uint32Var(&in.TData, "tdata", 0, "RX_TDATA register value")
	cmd.Flags().Uint32Var(&in.PayloadID, "payload", 0, "ST 352 payload ID of data stream 0")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("mode")
	_ = cmd.MarkFlagRequired("ts")

	return cmd
}
