package synonym

// Default returns the dictionary shipped with the LEAN BOT client.
func Default() Table {
	return New([]Rule{
		// project
		{Term: "título", Expansions: []string{"nombre", "denominación", "tema", "proyecto"}},
		{Term: "proyecto", Expansions: []string{"estudio", "investigación", "trabajo", "iniciativa"}},
		{Term: "exposición", Expansions: []string{"radiación", "emisión", "campos"}},
		{Term: "electromagnética", Expansions: []string{"electromagnetismo", "electromagnético", "radiación", "EMF"}},
		{Term: "machine learning", Expansions: []string{
			"ml", "aprendizaje automático", "aprendizaje de máquina", "ia", "inteligencia artificial",
		}},

		// objectives
		{Term: "objetivos", Expansions: []string{"metas", "propósitos", "fines", "finalidad"}},
		{Term: "general", Expansions: []string{"principal", "primario", "central"}},
		{Term: "específicos", Expansions: []string{"secundarios", "concretos", "particulares"}},

		// models
		{Term: "modelos", Expansions: []string{"algoritmos", "técnicas", "métodos", "enfoques"}},
		{Term: "regresión", Expansions: []string{"predicción", "estimación"}},
		{Term: "árboles", Expansions: []string{"decision trees", "árbol de decisión"}},
		{Term: "random forest", Expansions: []string{"bosque aleatorio", "rf"}},
		{Term: "xgboost", Expansions: []string{"gradient boosting", "boosting"}},

		// data
		{Term: "datos", Expansions: []string{"información", "dataset", "conjunto de datos", "fuentes"}},
		{Term: "variables", Expansions: []string{"características", "features", "atributos", "parámetros"}},

		// problem statement
		{Term: "problema", Expansions: []string{"desafío", "reto", "cuestión", "dificultad"}},
		{Term: "planteamiento", Expansions: []string{"formulación", "definición", "descripción"}},

		// benefits
		{Term: "beneficios", Expansions: []string{"ventajas", "utilidad", "provecho", "aportes"}},
		{Term: "ventajas", Expansions: []string{"beneficios", "fortalezas", "puntos fuertes"}},

		{Term: "conclusiones", Expansions: []string{"resultados", "hallazgos", "descubrimientos", "inferencias"}},

		// team
		{Term: "participantes", Expansions: []string{
			"integrantes", "miembros", "colaboradores", "personas", "equipo", "autores", "investigadores",
		}},
		{Term: "equipo", Expansions: []string{"grupo", "personal", "staff", "integrantes", "miembros", "participantes"}},
		{Term: "andres", Expansions: []string{"mauricio", "ardila", "andres mauricio", "andres ardila", "mauricio ardila"}},
		{Term: "claudia", Expansions: []string{"ines", "giraldo", "claudia ines", "claudia giraldo", "ines giraldo"}},
		{Term: "marisela", Expansions: []string{
			"lotero", "zuluaga", "marisela lotero", "marisela zuluaga", "lotero zuluaga",
		}},
		{Term: "darly", Expansions: []string{"mildred", "delgado", "darly mildred", "darly delgado", "mildred delgado"}},
	})
}
