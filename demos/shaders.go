package demos

// colorTriangleWGSL passes a per-vertex colour through to the fragment
// stage.
const colorTriangleWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec4<f32>, @location(1) col: vec4<f32>) -> VertexOutput {
    var output: VertexOutput;
    output.position = pos;
    output.color = col;
    return output;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`
