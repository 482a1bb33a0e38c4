package shader

// LitVertex transforms [pos, normal] vertices by model, view and
// projection and passes the world-space normal on.
const LitVertex = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vNormal;
out vec3 vWorldPos;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vWorldPos = world.xyz;
	vNormal = mat3(uModel) * aNormal;
	gl_Position = uProjection * uView * world;
}
`

// LitFragment shades with one directional light plus ambient. Balls are
// scaled uniformly so the normal matrix is the model matrix itself.
const LitFragment = `
#version 410 core

in vec3 vNormal;
in vec3 vWorldPos;

uniform vec3 uColor;
uniform vec3 uLightDir;
uniform float uAmbient;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);
	float diffuse = max(dot(n, -normalize(uLightDir)), 0.0);
	FragColor = vec4(uColor * (uAmbient + (1.0 - uAmbient) * diffuse), 1.0);
}
`
