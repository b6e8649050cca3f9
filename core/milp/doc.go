// Package milp holds a solver-neutral representation of a mixed-integer
// linear program: named variables with a domain, linear expressions,
// labelled constraints grouped by family and a single objective.
//
// Models are JSON encodable so they can travel to a remote solving service,
// and WriteLP renders them in CPLEX LP format for external solvers.
// Solutions map every variable name to a value; Model.Values turns a
// Solution into a dense vector and rejects incomplete ones.
package milp
