package urdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const twoLinkURDF = `<?xml version="1.0"?>
<robot name="planar2r">
  <material name="steel">
    <color rgba="0.6 0.6 0.65 1.0"/>
  </material>
  <link name="base">
    <visual>
      <geometry><box size="0.2 0.2 0.1"/></geometry>
      <material name="steel"/>
    </visual>
  </link>
  <link name="upper_arm">
    <visual>
      <origin xyz="0.5 0 0"/>
      <geometry><cylinder radius="0.05" length="1.0"/></geometry>
      <material name="steel"/>
    </visual>
  </link>
  <link name="forearm">
    <visual>
      <geometry><sphere radius="0.04"/></geometry>
      <material><color rgba="1 0 0 0.5"/></material>
    </visual>
  </link>
  <link name="tool_frame"/>
  <joint name="shoulder" type="revolute">
    <parent link="base"/>
    <child link="upper_arm"/>
    <origin xyz="0 0 0.1"/>
    <axis xyz="0 0 1"/>
    <limit lower="-3.14" upper="3.14" effort="10" velocity="1"/>
  </joint>
  <joint name="elbow" type="continuous">
    <parent link="upper_arm"/>
    <child link="forearm"/>
    <origin xyz="1 0 0"/>
    <axis xyz="0 0 1"/>
  </joint>
  <joint name="tool_mount" type="fixed">
    <parent link="forearm"/>
    <child link="tool_frame"/>
    <origin xyz="0.1 0 0" rpy="0 0 1.5707963267948966"/>
  </joint>
</robot>
`

func writeURDF(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.urdf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTwoLinkArm(t *testing.T) {
	m, err := Load(writeURDF(t, twoLinkURDF))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Name != "planar2r" {
		t.Errorf("robot name = %q, want planar2r", m.Name)
	}
	if len(m.Links) != 4 || len(m.Joints) != 3 {
		t.Fatalf("got %d links / %d joints, want 4 / 3", len(m.Links), len(m.Joints))
	}

	if m.Link("tool_frame").Visual != nil {
		t.Error("bare link should have nil visual")
	}
	if m.Link("no_such") != nil {
		t.Error("lookup of unknown link should return nil")
	}

	base := m.Link("base").Visual
	if !base.HasColor || base.Color != [4]float64{0.6, 0.6, 0.65, 1.0} {
		t.Errorf("named material not resolved: %+v", base)
	}
	fore := m.Link("forearm").Visual
	if !fore.HasColor || fore.Color[3] != 0.5 {
		t.Errorf("inline material not applied: %+v", fore)
	}

	shoulder := m.Joints[0]
	if shoulder.Type != Revolute || shoulder.Parent != "base" || shoulder.Child != "upper_arm" {
		t.Errorf("shoulder parsed wrong: %+v", shoulder)
	}
	if shoulder.Limit == nil || shoulder.Limit.Upper != 3.14 {
		t.Errorf("shoulder limit = %+v, want upper 3.14", shoulder.Limit)
	}
	if shoulder.Axis != [3]float64{0, 0, 1} {
		t.Errorf("shoulder axis = %v, want z", shoulder.Axis)
	}
	if elbow := m.Joints[1]; elbow.Type != Continuous || elbow.Limit != nil {
		t.Errorf("continuous joint should carry no limit: %+v", elbow)
	}
}

func TestVisualOriginBaked(t *testing.T) {
	m, err := Load(writeURDF(t, twoLinkURDF))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// upper_arm's cylinder is shifted by origin xyz="0.5 0 0": the baked
	// vertex centroid must sit at x=0.5.
	vis := m.Link("upper_arm").Visual
	var cx float64
	for _, v := range vis.Verts {
		cx += v.X()
	}
	cx /= float64(len(vis.Verts))
	if math.Abs(cx-0.5) > 1e-9 {
		t.Errorf("baked centroid x = %v, want 0.5", cx)
	}
}

func TestLoadMeshGeometry(t *testing.T) {
	dir := t.TempDir()

	// One-triangle binary STL.
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
	binary.Write(&buf, binary.LittleEndian, [9]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	if err := os.WriteFile(filepath.Join(dir, "tool.stl"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	urdfSrc := `<robot name="m">
  <link name="tool">
    <visual>
      <geometry><mesh filename="package://m/tool.stl" scale="2 2 2"/></geometry>
    </visual>
  </link>
</robot>`
	path := filepath.Join(dir, "m.urdf")
	if err := os.WriteFile(path, []byte(urdfSrc), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vis := m.Link("tool").Visual
	if vis == nil || len(vis.Tris) != 1 {
		t.Fatalf("mesh visual = %+v, want 1 triangle", vis)
	}
	// Scale 2 doubles the unit triangle's extent.
	var maxX float64
	for _, v := range vis.Verts {
		maxX = math.Max(maxX, v.X())
	}
	if maxX != 2 {
		t.Errorf("scaled max x = %v, want 2", maxX)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"garbage", "not xml at all"},
		{"no links", `<robot name="x"></robot>`},
		{"duplicate link", `<robot name="x"><link name="a"/><link name="a"/></robot>`},
		{"unknown joint type", `<robot name="x"><link name="a"/><link name="b"/>
			<joint name="j" type="helical"><parent link="a"/><child link="b"/></joint></robot>`},
		{"unknown child", `<robot name="x"><link name="a"/>
			<joint name="j" type="fixed"><parent link="a"/><child link="zz"/></joint></robot>`},
		{"zero axis", `<robot name="x"><link name="a"/><link name="b"/>
			<joint name="j" type="revolute"><parent link="a"/><child link="b"/><axis xyz="0 0 0"/></joint></robot>`},
	}
	for _, c := range cases {
		_, err := Load(writeURDF(t, c.src))
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !errors.Is(err, ErrInvalidDescription) {
			t.Errorf("%s: error %v does not match ErrInvalidDescription", c.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.urdf"))
	if !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("missing file error %v does not match ErrInvalidDescription", err)
	}
}
